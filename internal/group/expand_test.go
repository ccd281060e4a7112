package group

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hmansour/medilabel/internal/model"
)

type fakeFetcher struct {
	detail *model.GroupDetail
	err    error
}

func (f *fakeFetcher) GroupDetails(ctx context.Context, groupID int64) (*model.GroupDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func TestExpand(t *testing.T) {
	e := NewEngine(&fakeFetcher{detail: &model.GroupDetail{
		GroupID:   3,
		GroupName: "Post-Op",
		Drugs:     []model.GroupDrug{{DrugName: "A"}, {DrugName: "B"}},
	}}, slog.Default())

	detail, err := e.Expand(context.Background(), 3)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(detail.Drugs) != 2 {
		t.Errorf("drugs = %d", len(detail.Drugs))
	}
}

func TestExpandEmptyGroup(t *testing.T) {
	e := NewEngine(&fakeFetcher{detail: &model.GroupDetail{GroupName: "Empty"}}, slog.Default())
	if _, err := e.Expand(context.Background(), 1); !errors.Is(err, ErrNoDrugs) {
		t.Fatalf("err = %v, want ErrNoDrugs", err)
	}
}

func TestExpandFetchError(t *testing.T) {
	boom := errors.New("backend down")
	e := NewEngine(&fakeFetcher{err: boom}, slog.Default())
	if _, err := e.Expand(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped fetch error", err)
	}
}
