// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dbstats

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Default credentials of the MariaDB deployed by the playbooks.
const (
	DefaultUser     = "root"
	DefaultPassword = "my-secret-pw"
	DefaultPort     = 3306
)

const totalReadsWritesQuery = `
SELECT
  SUM(IF(variable_name = 'Com_select', variable_value, 0)) AS total_reads,
  SUM(IF(variable_name IN ('Com_delete', 'Com_insert', 'Com_update', 'Com_replace'), variable_value, 0)) AS total_writes
FROM information_schema.GLOBAL_STATUS`

// Counters are the cumulated numbers of read and write statements of a server.
type Counters struct {
	Reads  int64
	Writes int64
}

// Source reads counters from a database.
type Source interface {
	TotalReadsWrites(ctx context.Context) (Counters, error)
}

// Ratio is the read/write mix of the statements issued between two counter readings.
type Ratio struct {
	Reads         int64   `json:"reads" yaml:"reads"`
	Writes        int64   `json:"writes" yaml:"writes"`
	PercentReads  float64 `json:"%reads" yaml:"%reads"`
	PercentWrites float64 `json:"%writes" yaml:"%writes"`
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Compute returns the ratio of statements issued between before and after.
// Percentages are rounded to two decimals and zero when nothing happened.
func Compute(before, after Counters) Ratio {
	ratio := Ratio{
		Reads:  after.Reads - before.Reads,
		Writes: after.Writes - before.Writes,
	}
	total := ratio.Reads + ratio.Writes
	if total <= 0 {
		return ratio
	}
	ratio.PercentReads = round2(float64(ratio.Reads) / float64(total) * 100)
	ratio.PercentWrites = round2(float64(ratio.Writes) / float64(total) * 100)
	return ratio
}

func (r Ratio) String() string {
	return fmt.Sprintf("reads: %d, writes: %d, %%reads: %v, %%writes: %v", r.Reads, r.Writes, r.PercentReads, r.PercentWrites)
}

// DSN builds the data source name of the information_schema database of host.
func DSN(host string, port int, user, password string) string {
	config := mysql.NewConfig()
	config.User = user
	config.Passwd = password
	config.Net = "tcp"
	config.Addr = fmt.Sprintf("%s:%d", host, port)
	config.DBName = "information_schema"
	config.Timeout = 10 * time.Second
	return config.FormatDSN()
}

// MySQL reads counters from a MariaDB or MySQL server.
type MySQL struct {
	db *sql.DB
}

// Open returns a MySQL source for dsn. The connection is established lazily.
func Open(dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open database")
	}
	return &MySQL{db: db}, nil
}

// TotalReadsWrites returns the counters of the server.
func (m *MySQL) TotalReadsWrites(ctx context.Context) (Counters, error) {
	var reads, writes sql.NullString
	if err := m.db.QueryRowContext(ctx, totalReadsWritesQuery).Scan(&reads, &writes); err != nil {
		return Counters{}, errors.Wrap(err, "cannot query global status")
	}
	counters := Counters{}
	var err error
	if counters.Reads, err = parseCounter(reads); err != nil {
		return Counters{}, err
	}
	if counters.Writes, err = parseCounter(writes); err != nil {
		return Counters{}, err
	}
	logrus.Debugf("Database counters: %+v", counters)
	return counters, nil
}

// parseCounter reads SUM results, which MariaDB returns as decimals.
func parseCounter(value sql.NullString) (int64, error) {
	if !value.Valid || value.String == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value.String, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse counter %q", value.String)
	}
	return int64(f), nil
}

// Close closes the connection pool.
func (m *MySQL) Close() error {
	return m.db.Close()
}

// Measure reads counters around run and returns the ratio of what run issued.
func Measure(ctx context.Context, source Source, run func() error) (Ratio, error) {
	before, err := source.TotalReadsWrites(ctx)
	if err != nil {
		return Ratio{}, err
	}
	if err := run(); err != nil {
		return Ratio{}, err
	}
	after, err := source.TotalReadsWrites(ctx)
	if err != nil {
		return Ratio{}, err
	}
	return Compute(before, after), nil
}
