// Package group expands medication protocols into printable basket lines.
package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hmansour/medilabel/internal/model"
)

var ErrNoDrugs = errors.New("group contains no drugs")

// Fetcher supplies protocol details. Summaries never carry drug lists, so
// expansion always goes through the detail call.
type Fetcher interface {
	GroupDetails(ctx context.Context, groupID int64) (*model.GroupDetail, error)
}

type Engine struct {
	fetcher Fetcher
	logger  *slog.Logger
}

func NewEngine(fetcher Fetcher, logger *slog.Logger) *Engine {
	return &Engine{
		fetcher: fetcher,
		logger:  logger.With("component", "group"),
	}
}

// Expand fetches the protocol and returns it ready for basket insertion.
// A protocol with an empty drug list is an error rather than a silent no-op.
func (e *Engine) Expand(ctx context.Context, groupID int64) (*model.GroupDetail, error) {
	detail, err := e.fetcher.GroupDetails(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch group %d: %w", groupID, err)
	}
	if len(detail.Drugs) == 0 {
		return nil, ErrNoDrugs
	}
	e.logger.Info("expanded medication group", "group", detail.GroupName, "drugs", len(detail.Drugs))
	return detail, nil
}
