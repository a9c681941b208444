package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/slopeviz/internal/anim"
	"github.com/san-kum/slopeviz/internal/config"
	"github.com/san-kum/slopeviz/internal/export"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/session"
	"github.com/san-kum/slopeviz/internal/storage"
)

func exportCSV(cmd *cobra.Command, args []string) error {
	st, meta, err := resolveRun(args)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(meta.ID)
	if err != nil {
		return err
	}

	out, err := createOut(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := storage.WriteFramesCSV(out, frames); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Printf("exported %d frames to %s\n", len(frames), outPath)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, meta, err := resolveRun(args)
	if err != nil {
		return err
	}

	var frames []render.Frame
	if withFrames {
		frames, err = st.LoadFrames(meta.ID)
		if err != nil {
			return err
		}
	}

	out, err := createOut(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := storage.WriteJSON(out, *meta, frames); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Printf("exported to %s\n", outPath)
	}
	return nil
}

// frameAt drives a fresh session to the given phase and step and returns
// the scene on screen at that moment.
func frameAt(cfg *config.Config, phase anim.Phase, stepInPhase int) (*render.Scene, error) {
	perPhase := cfg.Animation.StepsPerPhase
	if stepInPhase < 0 || stepInPhase >= perPhase {
		return nil, fmt.Errorf("step must be in [0, %d), got %d", perPhase, stepInPhase)
	}
	if phase == anim.Idle && stepInPhase != 0 {
		return nil, fmt.Errorf("idle has no steps")
	}

	rec := render.NewRecorder()
	s, err := session.New(cfg.Params, cfg.AnimOptions(), rec, nil)
	if err != nil {
		return nil, err
	}
	if phase == anim.Idle {
		return rec.Current(), nil
	}

	s.Start()
	ticks := int(phase-anim.RisingToUpper)*perPhase + stepInPhase
	for i := 0; i < ticks; i++ {
		s.Tick()
	}
	return rec.Current(), nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	phase, ok := anim.ParsePhase(phaseName)
	if !ok {
		return fmt.Errorf("unknown phase: %s", phaseName)
	}

	scene, err := frameAt(cfg, phase, step)
	if err != nil {
		return err
	}

	write := export.SVG
	switch ext := strings.ToLower(filepath.Ext(outPath)); ext {
	case ".svg":
	case ".png":
		write = export.PNG
	default:
		return fmt.Errorf("unsupported output format %q (use .svg or .png)", ext)
	}

	out, err := createOut(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := write(out, scene, export.OptionsFor(cfg)); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s, step %d)\n", outPath, phase, step)
	return nil
}

func renderGIF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	_, frames, err := record(context.Background(), cfg, logger, false)
	if err != nil {
		return err
	}
	if err := writeGIF(outPath, frames, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames)\n", outPath, len(frames))
	return nil
}

func writeGIF(path string, frames []render.Frame, cfg *config.Config) error {
	out, err := createOut(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := export.GIF(out, frames, export.OptionsFor(cfg), cfg.TickPeriod()); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}
