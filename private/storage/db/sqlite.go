// Copyright 2021 Consortium GARR and University of Rome "Tor Vergata"
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package db contains the sqlite plumbing shared by the persistence layers.
package db

import (
	"database/sql"
	"net/url"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

// NewSqlite opens the sqlite database at path, creating it if necessary, and
// applies the given schema if the database is new. An existing database with
// a different schema version is rejected.
func NewSqlite(path string, schema string, schemaVersion int) (*sql.DB, error) {
	connParams := make(url.Values)
	// DEFERRED transactions that are upgraded to write transactions
	// in-flight return SQLITE_BUSY without respecting busy_timeout when the
	// database is locked. Starting transactions as IMMEDIATE avoids that.
	connParams.Add("_txlock", "immediate")
	// WAL lets readers and the writer proceed concurrently.
	connParams.Add("_pragma", "journal_mode(WAL)")
	connParams.Add("_pragma", "busy_timeout(1000)")
	// NORMAL still syncs at the critical moments and is corruption-safe
	// under WAL.
	connParams.Add("_pragma", "synchronous(NORMAL)")
	connParams.Add("_pragma", "foreign_keys(1)")
	if strings.Contains(path, ":memory:") {
		connParams.Add("mode", "memory")
		connParams.Add("cache", "shared")
	}

	connURL := path + "?" + connParams.Encode()
	if !strings.HasPrefix(connURL, "file:") {
		connURL = "file:" + connURL
	}
	database, err := sql.Open("sqlite", connURL)
	if err != nil {
		return nil, serrors.Wrap("opening database", err, "path", path)
	}
	// A single writer avoids lock contention on sqlite.
	database.SetMaxOpenConns(1)

	if err := setup(database, schema, schemaVersion); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func setup(database *sql.DB, schema string, schemaVersion int) error {
	var existingVersion int
	if err := database.QueryRow("PRAGMA user_version;").Scan(&existingVersion); err != nil {
		return serrors.Wrap("checking database schema version", err)
	}
	switch {
	case existingVersion == 0:
		if _, err := database.Exec(schema); err != nil {
			return serrors.Wrap("applying schema", err)
		}
		if _, err := database.Exec(
			"PRAGMA user_version = " + strconv.Itoa(schemaVersion)); err != nil {
			return serrors.Wrap("writing schema version", err)
		}
		return nil
	case existingVersion != schemaVersion:
		return serrors.New("database schema version mismatch",
			"expected", schemaVersion, "have", existingVersion)
	default:
		return nil
	}
}
