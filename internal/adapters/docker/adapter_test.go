package docker

import (
	"bytes"
	"io"
	"testing"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/melih/lighthouse-builder/internal/core/domain"
)

func TestDemuxLogs(t *testing.T) {
	var buf bytes.Buffer
	stdout := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	stderr := stdcopy.NewStdWriter(&buf, stdcopy.Stderr)
	for _, w := range []struct {
		w io.Writer
		s string
	}{
		{stdout, "> Task :compileJava\n"},
		{stderr, "warning: [options] bootstrap class path not set\n"},
		{stdout, "BUILD SUCCESSFUL\n"},
	} {
		if _, err := w.w.Write([]byte(w.s)); err != nil {
			t.Fatal(err)
		}
	}

	var frames []domain.LogFrame
	if err := demuxLogs(&buf, func(f domain.LogFrame) { frames = append(frames, f) }); err != nil {
		t.Fatalf("didn't want %q", err)
	}

	want := []domain.LogFrame{
		{Stream: domain.StreamStdout, Payload: []byte("> Task :compileJava\n")},
		{Stream: domain.StreamStderr, Payload: []byte("warning: [options] bootstrap class path not set\n")},
		{Stream: domain.StreamStdout, Payload: []byte("BUILD SUCCESSFUL\n")},
	}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d", len(frames), len(want))
	}
	for i := range want {
		if frames[i].Stream != want[i].Stream || !bytes.Equal(frames[i].Payload, want[i].Payload) {
			t.Fatalf("frame %d: got %v %q, want %v %q", i, frames[i].Stream, frames[i].Payload, want[i].Stream, want[i].Payload)
		}
	}
}

func TestPullProgress(t *testing.T) {
	t.Run("with counts", func(t *testing.T) {
		ev := pullProgress(jsonmessage.JSONMessage{
			ID:       "4f4fb700ef54",
			Status:   "Downloading",
			Progress: &jsonmessage.JSONProgress{Current: 512, Total: 2048},
		})
		if ev.ID != "4f4fb700ef54" || ev.Status != "Downloading" {
			t.Fatalf("got %+v", ev)
		}
		if ev.Current == nil || *ev.Current != 512 || ev.Total == nil || *ev.Total != 2048 {
			t.Fatalf("got current %v total %v", ev.Current, ev.Total)
		}
	})

	t.Run("without progress", func(t *testing.T) {
		ev := pullProgress(jsonmessage.JSONMessage{ID: "4f4fb700ef54", Status: "Pull complete"})
		if ev.Current != nil || ev.Total != nil {
			t.Fatalf("got current %v total %v, want nil", ev.Current, ev.Total)
		}
	})

	t.Run("unknown total", func(t *testing.T) {
		ev := pullProgress(jsonmessage.JSONMessage{Status: "Extracting", Progress: &jsonmessage.JSONProgress{Current: 10}})
		if ev.Current == nil || *ev.Current != 10 || ev.Total != nil {
			t.Fatalf("got current %v total %v", ev.Current, ev.Total)
		}
	})
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("got %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
