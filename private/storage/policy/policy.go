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

// Package policy implements the persistence store for uSID policies on top
// of sqlite. Policies are queryable by any subset of their fields.
package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/netip"
	"strconv"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
	"github.com/netgroup/srv6-controller/pkg/srv6"
	"github.com/netgroup/srv6-controller/private/storage/db"
)

// SchemaVersion is the version of the usid_policies schema.
const SchemaVersion = 1

// Schema is the SQL schema of the policy store.
const Schema = `
CREATE TABLE usid_policies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lr_dst TEXT NOT NULL,
	rl_dst TEXT NOT NULL,
	lr_nodes TEXT NOT NULL,
	rl_nodes TEXT NOT NULL,
	tbl INTEGER NOT NULL,
	metric INTEGER NOT NULL,
	l_grpc_ip TEXT NOT NULL DEFAULT '',
	l_grpc_port INTEGER NOT NULL DEFAULT 0,
	l_fwd_engine TEXT NOT NULL DEFAULT '',
	r_grpc_ip TEXT NOT NULL DEFAULT '',
	r_grpc_port INTEGER NOT NULL DEFAULT 0,
	r_fwd_engine TEXT NOT NULL DEFAULT '',
	decap_sid TEXT NOT NULL DEFAULT '',
	locator TEXT NOT NULL DEFAULT ''
);
CREATE INDEX idx_usid_policies_lr_dst ON usid_policies (lr_dst);
`

// DB is the sqlite-backed policy store.
type DB struct {
	database *sql.DB
}

// New opens the policy store at the given path, creating it if necessary.
func New(path string) (*DB, error) {
	database, err := db.NewSqlite(path, Schema, SchemaVersion)
	if err != nil {
		return nil, err
	}
	return &DB{database: database}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.database.Close()
}

// Insert stores a new policy and returns the key assigned to it.
func (d *DB) Insert(ctx context.Context, p srv6.UsidPolicy) (string, error) {
	lrNodes, err := encodeNodes(p.NodesLR)
	if err != nil {
		return "", err
	}
	rlNodes, err := encodeNodes(p.NodesRL)
	if err != nil {
		return "", err
	}
	res, err := d.database.ExecContext(ctx, `
		INSERT INTO usid_policies (lr_dst, rl_dst, lr_nodes, rl_nodes, tbl, metric,
			l_grpc_ip, l_grpc_port, l_fwd_engine,
			r_grpc_ip, r_grpc_port, r_fwd_engine, decap_sid, locator)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.LRDestination.String(), p.RLDestination.String(), lrNodes, rlNodes,
		p.Table, p.Metric,
		addrString(p.LGRPCAddr), p.LGRPCPort, engineString(p.LFwdEngine),
		addrString(p.RGRPCAddr), p.RGRPCPort, engineString(p.RFwdEngine),
		p.DecapSID, addrString(p.Locator),
	)
	if err != nil {
		return "", serrors.Wrap("inserting policy", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", serrors.Wrap("reading policy key", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Match returns the stored policies matching the filter. An empty result is
// not an error.
func (d *DB) Match(ctx context.Context, f srv6.PolicyFilter) ([]srv6.UsidPolicy, error) {
	query, args, err := buildMatch(f)
	if err != nil {
		return nil, err
	}
	rows, err := d.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, serrors.Wrap("querying policies", err)
	}
	defer rows.Close()

	var policies []srv6.UsidPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, serrors.Wrap("iterating policies", err)
	}
	return policies, nil
}

// Delete removes the policy with the given key. Deleting a nonexistent key
// is not an error; the number of removed rows is returned.
func (d *DB) Delete(ctx context.Context, id string) (int, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, serrors.New("invalid policy key", "id", id)
	}
	res, err := d.database.ExecContext(ctx,
		"DELETE FROM usid_policies WHERE id = ?", key)
	if err != nil {
		return 0, serrors.Wrap("deleting policy", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, serrors.Wrap("reading affected rows", err)
	}
	return int(n), nil
}

func buildMatch(f srv6.PolicyFilter) (string, []interface{}, error) {
	query := `
		SELECT id, lr_dst, rl_dst, lr_nodes, rl_nodes, tbl, metric,
			l_grpc_ip, l_grpc_port, l_fwd_engine,
			r_grpc_ip, r_grpc_port, r_fwd_engine, decap_sid, locator
		FROM usid_policies`
	var where []string
	var args []interface{}
	if f.ID != "" {
		key, err := strconv.ParseInt(f.ID, 10, 64)
		if err != nil {
			return "", nil, serrors.New("invalid policy key", "id", f.ID)
		}
		where = append(where, "id = ?")
		args = append(args, key)
	}
	if f.LRDestination.IsValid() {
		where = append(where, "lr_dst = ?")
		args = append(args, f.LRDestination.String())
	}
	if f.RLDestination.IsValid() {
		where = append(where, "rl_dst = ?")
		args = append(args, f.RLDestination.String())
	}
	if f.NodesLR != nil {
		nodes, err := encodeNodes(f.NodesLR)
		if err != nil {
			return "", nil, err
		}
		where = append(where, "lr_nodes = ?")
		args = append(args, nodes)
	}
	if f.NodesRL != nil {
		nodes, err := encodeNodes(f.NodesRL)
		if err != nil {
			return "", nil, err
		}
		where = append(where, "rl_nodes = ?")
		args = append(args, nodes)
	}
	if f.Table != srv6.UnsetTableMetric {
		where = append(where, "tbl = ?")
		args = append(args, f.Table)
	}
	if f.Metric != srv6.UnsetTableMetric {
		where = append(where, "metric = ?")
		args = append(args, f.Metric)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY id"
	return query, args, nil
}

func scanPolicy(rows *sql.Rows) (srv6.UsidPolicy, error) {
	var p srv6.UsidPolicy
	var id int64
	var lrDst, rlDst, lrNodes, rlNodes string
	var lIP, lEngine, rIP, rEngine, locator string
	err := rows.Scan(&id, &lrDst, &rlDst, &lrNodes, &rlNodes, &p.Table, &p.Metric,
		&lIP, &p.LGRPCPort, &lEngine, &rIP, &p.RGRPCPort, &rEngine,
		&p.DecapSID, &locator)
	if err != nil {
		return srv6.UsidPolicy{}, serrors.Wrap("scanning policy", err)
	}
	p.ID = strconv.FormatInt(id, 10)
	if p.LRDestination, err = netip.ParsePrefix(lrDst); err != nil {
		return srv6.UsidPolicy{}, serrors.Wrap("parsing stored lr destination", err)
	}
	if p.RLDestination, err = netip.ParsePrefix(rlDst); err != nil {
		return srv6.UsidPolicy{}, serrors.Wrap("parsing stored rl destination", err)
	}
	if err := json.Unmarshal([]byte(lrNodes), &p.NodesLR); err != nil {
		return srv6.UsidPolicy{}, serrors.Wrap("parsing stored lr nodes", err)
	}
	if err := json.Unmarshal([]byte(rlNodes), &p.NodesRL); err != nil {
		return srv6.UsidPolicy{}, serrors.Wrap("parsing stored rl nodes", err)
	}
	if p.LGRPCAddr, err = parseOptionalAddr(lIP); err != nil {
		return srv6.UsidPolicy{}, err
	}
	if p.RGRPCAddr, err = parseOptionalAddr(rIP); err != nil {
		return srv6.UsidPolicy{}, err
	}
	if p.Locator, err = parseOptionalAddr(locator); err != nil {
		return srv6.UsidPolicy{}, err
	}
	if p.LFwdEngine, err = parseOptionalEngine(lEngine); err != nil {
		return srv6.UsidPolicy{}, err
	}
	if p.RFwdEngine, err = parseOptionalEngine(rEngine); err != nil {
		return srv6.UsidPolicy{}, err
	}
	return p, nil
}

func encodeNodes(nodes []string) (string, error) {
	raw, err := json.Marshal(nodes)
	if err != nil {
		return "", serrors.Wrap("encoding node list", err)
	}
	return string(raw), nil
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

func engineString(e srv6.FwdEngine) string {
	if e == srv6.FwdEngineUnspec {
		return ""
	}
	return e.String()
}

func parseOptionalAddr(s string) (netip.Addr, error) {
	if s == "" {
		return netip.Addr{}, nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, serrors.Wrap("parsing stored address", err, "address", s)
	}
	return a, nil
}

func parseOptionalEngine(s string) (srv6.FwdEngine, error) {
	if s == "" {
		return srv6.FwdEngineUnspec, nil
	}
	return srv6.ParseFwdEngine(s)
}
