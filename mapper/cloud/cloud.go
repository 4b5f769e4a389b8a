// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"terramap/mapper/cloud/db"
	"terramap/mapper/cloud/fs"
)

const UpdatePeriod = 30 * time.Second

// A nil cloud is valid to use with any methods (acts as a no-op)
// This just means the mapper is in offline mode
type Cloud struct {
	stage     string
	sessionID string
	started   time.Time
	database  db.Database
	fs        fs.Filesystem
}

func (cloud *Cloud) String() string {
	var builder strings.Builder
	builder.WriteByte('[')
	if cloud == nil {
		builder.WriteString("offline")
	} else {
		builder.WriteString(cloud.stage)
		builder.WriteByte(' ')
		builder.WriteString(cloud.sessionID)
	}
	builder.WriteByte(']')
	return builder.String()
}

// New connects to AWS for the given stage. Returns nil cloud on error.
func New(region, stage string) (*Cloud, error) {
	cloud := &Cloud{stage: stage, started: time.Now()}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	cloud.sessionID = id.String()

	session, err := getAWSSession(region)
	if err != nil {
		return nil, err
	}

	cloud.database, err = db.NewDynamoDBDatabase(session, stage)
	if err != nil {
		return nil, err
	}
	cloud.fs, err = fs.NewS3Filesystem(session, stage)
	if err != nil {
		return nil, err
	}

	// Write the session record up front so a crash still leaves a trace.
	err = cloud.UpdateSession(db.Session{})
	if err != nil {
		return nil, err
	}

	return cloud, nil
}

// UpdateSession pushes the running totals. Identity fields are filled in
// here; callers only provide the counters.
func (cloud *Cloud) UpdateSession(s db.Session) error {
	if cloud == nil {
		return nil
	}
	s.ID = cloud.sessionID
	s.Started = cloud.started.UnixNano() / 1e6
	s.Updated = time.Now().UnixNano() / 1e6
	s.TTL = time.Now().Unix() + 60*60*24*30
	return cloud.database.UpdateSession(s)
}

// UploadMapImage publishes an encoded PNG of a global map product.
func (cloud *Cloud) UploadMapImage(name string, data []byte) error {
	if cloud == nil {
		return nil
	}
	return cloud.fs.UploadStaticFile(name+".png", 10, data)
}
