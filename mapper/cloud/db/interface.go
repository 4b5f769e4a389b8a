// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

type Database interface {
	UpdateSession(session Session) error
	ReadSessions() (sessions []Session, err error)
}
