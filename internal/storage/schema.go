// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"strconv"
	"strings"
)

// Dialects
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const formsTable = `CREATE TABLE IF NOT EXISTS tax_forms (
	form_id              VARCHAR(50) PRIMARY KEY,
	form_type            VARCHAR(20) NOT NULL,
	taxpayer_name        VARCHAR(100),
	ssn                  VARCHAR(11),
	filing_status        VARCHAR(50),
	tax_year             INTEGER,
	wages                DOUBLE PRECISION,
	federal_tax_withheld DOUBLE PRECISION,
	address              VARCHAR(200),
	city                 VARCHAR(50),
	state                VARCHAR(2),
	zip_code             VARCHAR(10),
	status               VARCHAR(20) NOT NULL,
	confidence           DOUBLE PRECISION NOT NULL,
	source_path          TEXT,
	processed_by         VARCHAR(100),
	structured_data      TEXT,
	validation_errors    TEXT,
	validation_warnings  TEXT,
	raw_text             TEXT,
	created_at           VARCHAR(40) NOT NULL,
	updated_at           VARCHAR(40) NOT NULL
)`

const sqliteLogTable = `CREATE TABLE IF NOT EXISTS processing_log (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	form_id           VARCHAR(50) NOT NULL,
	processing_status VARCHAR(20) NOT NULL,
	error_message     TEXT,
	processed_at      VARCHAR(40) NOT NULL
)`

const postgresLogTable = `CREATE TABLE IF NOT EXISTS processing_log (
	id                BIGSERIAL PRIMARY KEY,
	form_id           VARCHAR(50) NOT NULL,
	processing_status VARCHAR(20) NOT NULL,
	error_message     TEXT,
	processed_at      VARCHAR(40) NOT NULL
)`

const logIndex = `CREATE INDEX IF NOT EXISTS idx_processing_log_form ON processing_log (form_id)`

func schema(dialect string) []string {
	logTable := sqliteLogTable
	if dialect == DialectPostgres {
		logTable = postgresLogTable
	}
	return []string{formsTable, logTable, logIndex}
}

// rebind rewrites ? placeholders to $n for postgres
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
