// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
)

// PgxIface is the subset of a pgx pool used by marketdash. pgxmock satisfies it in tests.
type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

var (
	ErrNotConnected = errors.New("database pool not configured")
	ErrEmptyRole    = errors.New("role cannot be an empty string")
)

var pool PgxIface

// SetPool replaces the pool used for new transactions
func SetPool(myPool PgxIface) {
	pool = myPool
}

// Connect opens a pgx pool to url and makes it the active pool
func Connect(ctx context.Context, url string) error {
	myPool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		log.Error().Err(err).Msg("could not connect to pool")
		return err
	}

	if err = myPool.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("could not ping database server")
		return err
	}

	SetPool(myPool)
	return nil
}

// TrxForRole begins a transaction and switches to role. Queries run with the
// privileges of that role for the life of the transaction.
func TrxForRole(ctx context.Context, role string) (pgx.Tx, error) {
	if pool == nil {
		return nil, ErrNotConnected
	}

	if role == "" {
		return nil, ErrEmptyRole
	}

	trx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	// SET ROLE does not accept bind parameters
	ident := pgx.Identifier{role}
	if _, err := trx.Exec(ctx, fmt.Sprintf("SET ROLE %s", ident.Sanitize())); err != nil {
		log.Error().Err(err).Str("Role", role).Msg("could not switch role")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	return trx, nil
}
