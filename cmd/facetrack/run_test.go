package main

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestAwaitServer(t *testing.T) {
	t.Run("failure is logged and stops the run", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		serverErr := make(chan error, 1)
		stopped := make(chan struct{})

		done := awaitServer(serverErr, logger, func() { close(stopped) })

		listenErr := errors.New("listen tcp 127.0.0.1:8080: address already in use")
		serverErr <- listenErr

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("stop was not called after the server failed")
		}

		select {
		case err := <-done:
			if !errors.Is(err, listenErr) {
				t.Errorf("relayed error = %v, want %v", err, listenErr)
			}
		default:
			t.Fatal("error was not relayed before stop")
		}

		entry := hook.LastEntry()
		if entry == nil || entry.Level != logrus.ErrorLevel {
			t.Fatalf("expected an error log entry, got %+v", entry)
		}
	})

	t.Run("clean exit stops without logging", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		serverErr := make(chan error, 1)
		stopped := make(chan struct{})

		done := awaitServer(serverErr, logger, func() { close(stopped) })
		serverErr <- nil

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("stop was not called after the server exited")
		}
		if err := <-done; err != nil {
			t.Errorf("relayed error = %v, want nil", err)
		}
		if n := len(hook.AllEntries()); n != 0 {
			t.Errorf("expected no log entries, got %d", n)
		}
	})
}
