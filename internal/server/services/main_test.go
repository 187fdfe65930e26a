package services

import (
	"context"
	"os"
	"testing"

	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/auth"
)

func TestMain(m *testing.M) {
	// cheap hashes keep the suite fast; verification reads params from the hash
	auth.DefaultParams.Memory = 1024
	auth.DefaultParams.Time = 1
	os.Exit(m.Run())
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeConn runs transactions inline.
type fakeConn struct {
	txCalls int
}

func (c *fakeConn) DB() dbx.DBTX { return nil }

func (c *fakeConn) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	c.txCalls++
	return fn(ctx, nil)
}
