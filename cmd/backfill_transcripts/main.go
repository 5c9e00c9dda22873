package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/app"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var courses idList
	var dryRun bool
	var limit int
	flag.Var(&courses, "course", "course id to backfill (repeatable)")
	flag.BoolVar(&dryRun, "dry-run", false, "print courses with failed transcripts without retrying")
	flag.IntVar(&limit, "limit", 0, "limit number of courses processed")
	flag.Parse()

	var ids []uuid.UUID
	for _, s := range courses {
		id, err := uuid.Parse(s)
		if err != nil || id == uuid.Nil {
			fmt.Printf("skipping invalid course id %q\n", s)
			continue
		}
		ids = append(ids, id)
	}
	if len(courses) > 0 && len(ids) == 0 {
		fmt.Println("no valid course ids provided")
		return 1
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		return 1
	}
	defer application.Close()

	backlog, err := application.Repos.Course.ListFailedTranscripts(ctx, nil, ids, limit)
	if err != nil {
		fmt.Printf("load courses: %v\n", err)
		return 1
	}

	recovered, failures := 0, 0
	for _, row := range backlog {
		if dryRun {
			fmt.Printf("[dry-run] course_id=%s failed_transcripts=%d\n", row.CourseID, row.Failed)
			continue
		}
		res, err := application.Services.Video.RetryFailedTranscripts(ctx, row.CourseID)
		if err != nil {
			failures++
			fmt.Printf("retry failed for course %s: %v\n", row.CourseID, err)
			continue
		}
		recovered += res.Recovered
		fmt.Printf("course_id=%s attempted=%d recovered=%d\n", row.CourseID, res.Attempted, res.Recovered)
	}

	fmt.Printf("done; courses=%d recovered=%d errors=%d\n", len(backlog), recovered, failures)
	if failures > 0 {
		return 1
	}
	return 0
}
