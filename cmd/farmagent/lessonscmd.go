package main

import (
	"context"
	"fmt"

	"github.com/sandahltim/StardewAI-sub000/internal/lessons"
)

// Run lists every recorded lesson, optionally filtered by kind.
func (l *LessonsCmd) Run(ctx context.Context) error {
	rig, err := buildRig(l.Config)
	if err != nil {
		return err
	}

	all := rig.lessons.All()
	kind := lessons.Kind(l.Kind)

	count := 0
	for _, lesson := range all {
		if l.Kind != "" && lesson.Kind != kind {
			continue
		}
		fmt.Printf("%s  %-24s %s\n", lesson.Timestamp.Format("2006-01-02 15:04:05"), lesson.Kind, lesson.Context)
		count++
	}
	fmt.Printf("\n%d lesson(s)\n", count)
	return nil
}
