package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"servicedesk/backend/internal/domain"
)

// UnknownBranchCode stands in for a branch code that cannot be looked up.
const UnknownBranchCode = "XXX"

type BranchLookup interface {
	GetBranch(ctx context.Context, companyID string, branchID string) (*domain.Branch, error)
}

type Numberer struct {
	branches BranchLookup
	log      logrus.FieldLogger
}

func NewNumberer(branches BranchLookup, log logrus.FieldLogger) *Numberer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Numberer{branches: branches, log: log}
}

// Generate returns SET-{branchCode}-{YYYYMMDD}. A failed lookup or empty code
// yields the placeholder code; numbering never fails.
func (n *Numberer) Generate(ctx context.Context, companyID string, branchID string, day time.Time) string {
	branch, err := n.branches.GetBranch(ctx, companyID, branchID)
	return n.number(branchID, branch, err, day)
}

func (n *Numberer) number(branchID string, branch *domain.Branch, lookupErr error, day time.Time) string {
	code := UnknownBranchCode
	switch {
	case lookupErr != nil:
		n.log.WithError(lookupErr).WithField("branch_id", branchID).Warn("settlement numbering: branch lookup failed, using placeholder code")
	case branch == nil || strings.TrimSpace(branch.Code) == "":
		n.log.WithField("branch_id", branchID).Warn("settlement numbering: branch has no code, using placeholder")
	default:
		code = strings.ToUpper(strings.TrimSpace(branch.Code))
	}
	return FormatNumber(code, day)
}

func FormatNumber(branchCode string, day time.Time) string {
	return "SET-" + branchCode + "-" + day.Format("20060102")
}
