// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
)

type DynamoDBDatabase struct {
	svc           *dynamodb.DynamoDB
	db            *dynamo.DB
	sessionsTable dynamo.Table
}

func NewDynamoDBDatabase(session *session.Session, stage string) (*DynamoDBDatabase, error) {
	ddb := &DynamoDBDatabase{svc: dynamodb.New(session)}
	ddb.db = dynamo.NewFromIface(ddb.svc)
	ddb.sessionsTable = ddb.db.Table("terramap-" + stage + "-sessions")
	return ddb, nil
}

func (ddb *DynamoDBDatabase) UpdateSession(s Session) error {
	return ddb.sessionsTable.Put(s).Run()
}

func (ddb *DynamoDBDatabase) ReadSessions() (sessions []Session, err error) {
	query := ddb.sessionsTable.Scan().Iter()

	for {
		var s Session
		ok := query.Next(&s)
		if !ok {
			err = query.Err()
			return
		}
		sessions = append(sessions, s)
	}
}
