package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/entity"
)

func openTestRepo(t *testing.T) *JobRepository {
	t.Helper()
	repo, err := Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("close repo: %v", err)
		}
	})
	return repo
}

func TestJobLifecycle(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	job, err := repo.Start(ctx, "/charts/bore1.xlsx", constants.EXCEL)
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if job.Status != constants.JobStatusRunning {
		t.Errorf("expected RUNNING, got %s", job.Status)
	}

	now := time.Now().UTC()
	res := &entity.ExtractionResult{
		ID:      uuid.New(),
		Success: true,
		Data: []entity.ExtractedLayer{
			{Material: "Clay", StartDepth: 0, EndDepth: 10},
			{Material: "Sand", StartDepth: 10, EndDepth: 20},
		},
		Confidence: entity.ConfidenceReport{Score: 0.85, Level: constants.ConfidenceHigh},
		Metadata: entity.Metadata{
			Attempts: []entity.Attempt{
				{ID: uuid.New(), Strategy: "excel-primary", Status: constants.AttemptOK, Points: 4, StartedAt: now, FinishedAt: now},
			},
		},
	}
	if err := repo.Finish(ctx, job.ID, res); err != nil {
		t.Fatalf("finish job: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != constants.JobStatusOK {
		t.Errorf("expected OK, got %s", got.Status)
	}
	if got.LayerCount != 2 {
		t.Errorf("expected 2 layers recorded, got %d", got.LayerCount)
	}
	if got.Confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", got.Confidence)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished timestamp")
	}
}

func TestFinish_StatusMapping(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	t.Run("layers without success means review", func(t *testing.T) {
		job, err := repo.Start(ctx, "/charts/review.pdf", constants.PDF)
		if err != nil {
			t.Fatal(err)
		}
		res := &entity.ExtractionResult{
			Data:       []entity.ExtractedLayer{{Material: "Clay", StartDepth: 0, EndDepth: 5}},
			Confidence: entity.ConfidenceReport{Score: 0.4},
		}
		if err := repo.Finish(ctx, job.ID, res); err != nil {
			t.Fatal(err)
		}
		got, err := repo.GetByID(ctx, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != constants.JobStatusReview {
			t.Errorf("expected REVIEW, got %s", got.Status)
		}
	})

	t.Run("no layers means failed", func(t *testing.T) {
		job, err := repo.Start(ctx, "/charts/bad.pdf", constants.PDF)
		if err != nil {
			t.Fatal(err)
		}
		res := &entity.ExtractionResult{Errors: []string{"corrupt PDF bad.pdf"}}
		if err := repo.Finish(ctx, job.ID, res); err != nil {
			t.Fatal(err)
		}
		got, err := repo.GetByID(ctx, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != constants.JobStatusFailed {
			t.Errorf("expected FAILED, got %s", got.Status)
		}
		if got.ErrorMessage == "" {
			t.Error("expected first error recorded")
		}
	})
}

func TestListJobs(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, path := range []string{"/a.xlsx", "/b.xlsx", "/c.pdf"} {
		if _, err := repo.Start(ctx, path, constants.EXCEL); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := repo.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(jobs))
	}

	limited, err := repo.ListJobs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit respected, got %d", len(limited))
	}
}
