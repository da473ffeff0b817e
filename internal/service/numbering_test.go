package service

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/store"
)

type branchLookupFunc func(ctx context.Context, companyID string, branchID string) (*domain.Branch, error)

func (f branchLookupFunc) GetBranch(ctx context.Context, companyID string, branchID string) (*domain.Branch, error) {
	return f(ctx, companyID, branchID)
}

func TestNumbererGenerate(t *testing.T) {
	day := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		lookup branchLookupFunc
		want   string
		warns  int
	}{
		{
			name: "branch code",
			lookup: func(context.Context, string, string) (*domain.Branch, error) {
				return &domain.Branch{Code: " kor "}, nil
			},
			want: "SET-KOR-20260109",
		},
		{
			name: "branch missing",
			lookup: func(context.Context, string, string) (*domain.Branch, error) {
				return nil, store.ErrNotFound
			},
			want:  "SET-XXX-20260109",
			warns: 1,
		},
		{
			name: "lookup failure",
			lookup: func(context.Context, string, string) (*domain.Branch, error) {
				return nil, errors.New("connection reset")
			},
			want:  "SET-XXX-20260109",
			warns: 1,
		},
		{
			name: "empty code",
			lookup: func(context.Context, string, string) (*domain.Branch, error) {
				return &domain.Branch{}, nil
			},
			want:  "SET-XXX-20260109",
			warns: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			n := NewNumberer(tc.lookup, logger)

			assert.Equal(t, tc.want, n.Generate(context.Background(), "co-1", "br-1", day))
			assert.Len(t, hook.AllEntries(), tc.warns)
		})
	}
}

func TestGenerateSettlementNumberUsesLocalDay(t *testing.T) {
	repo := scenarioStore(t)
	ist := time.FixedZone("IST", 5*3600+1800)
	svc, err := New(repo, Options{Location: ist})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	// 20:00 UTC on 1 July is already 2 July in IST.
	got := svc.GenerateSettlementNumber(context.Background(), companyID, branchID, time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, "SET-BLR-20260702", got)
}
