// Package storage selects the Store implementation named in configuration.
package storage

import (
	"context"
	"fmt"
	"io"

	"hoteliq/internal/domain"
	"hoteliq/internal/storage/memory"
	mysqlrepo "hoteliq/internal/storage/mysql"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Open(ctx context.Context, driver, dsn string) (domain.Store, io.Closer, error) {
	switch driver {
	case DriverMemory:
		return memory.New(), nopCloser{}, nil
	case DriverMySQL, "":
		db, err := mysqlrepo.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return mysqlrepo.New(db), db, nil
	}
	return nil, nil, fmt.Errorf("store driver %q: %w", driver, domain.ErrInvalidInput)
}
