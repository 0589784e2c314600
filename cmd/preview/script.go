package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/theme"
)

// Step is one scripted user interaction. Target is a CSS selector; an
// empty target addresses the document.
type Step struct {
	Type    string `json:"type"`
	Target  string `json:"target"`
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Checked bool   `json:"checked"`
	Key     string `json:"key"`
}

func loadScript(path string) ([]Step, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0)
	if err := jsoncompat.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("decode script %s: %w", path, err)
	}
	return steps, nil
}

// play dispatches the steps in order. A step whose target is missing is
// logged and skipped.
func play(ctx context.Context, rt *theme.Runtime, steps []Step, log *zap.Logger) int {
	played := 0
	for i, s := range steps {
		target := rt.Doc.Root()
		if s.Target != "" {
			var matches []*html.Node
			rt.Doc.Update(func() { matches = rt.Doc.QueryAll(s.Target) })
			if s.Index < 0 || s.Index >= len(matches) {
				log.Warn("step target not found", zap.Int("step", i), zap.String("target", s.Target))
				continue
			}
			target = matches[s.Index]
		}
		n := rt.Dispatch(ctx, dom.Event{Type: s.Type, Target: target, Value: s.Value, Checked: s.Checked, Key: s.Key})
		log.Debug("step", zap.Int("step", i), zap.String("type", s.Type), zap.Int("handlers", n))
		played++
	}
	return played
}
