package db_test

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/core/db"
)

var _ = DescribeTable("Retryable",
	func(err error, want bool) {
		Expect(db.Retryable(err)).To(Equal(want))
	},
	Entry("serialization failure", &pgconn.PgError{Code: "40001"}, true),
	Entry("deadlock", fmt.Errorf("accepting invitation: %w", &pgconn.PgError{Code: "40P01"}), true),
	Entry("unique violation", &pgconn.PgError{Code: "23505"}, false),
	Entry("plain error", errors.New("boom"), false),
	Entry("nil", nil, false),
)
