package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/barysiuk/linkrow/internal/core/dependency"
)

func TestRunWithHooks_Order(t *testing.T) {
	rec := &recorder{}
	dep := &dependency.Config{Name: "dep"}
	dep.Hooks.Prelink = recordingHook(rec, "prelink", "dep", nil)
	dep.Hooks.Postlink = recordingHook(rec, "postlink", "dep", nil)

	err := RunWithHooks(context.Background(), dep, nil, func(context.Context) error {
		rec.add("body")
		return nil
	})
	if err != nil {
		t.Fatalf("RunWithHooks() error: %v", err)
	}
	want := []string{"prelink:dep", "body", "postlink:dep"}
	if got := rec.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRunWithHooks_NoHooks(t *testing.T) {
	called := false
	err := RunWithHooks(context.Background(), &dependency.Config{Name: "dep"}, nil, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("RunWithHooks() = %v, body called = %v", err, called)
	}
}

func TestRunWithHooks_BodyFailure(t *testing.T) {
	rec := &recorder{}
	dep := &dependency.Config{Name: "dep"}
	dep.Hooks.Postlink = recordingHook(rec, "postlink", "dep", nil)
	bodyErr := errors.New("register failed")

	err := RunWithHooks(context.Background(), dep, nil, func(context.Context) error { return bodyErr })
	if err != bodyErr {
		t.Fatalf("error = %v, want body error unchanged", err)
	}
	if rec.count("postlink:") != 0 {
		t.Error("postlink ran after body failure")
	}
}

func TestRunWithHooks_PrelinkFailure(t *testing.T) {
	rec := &recorder{}
	dep := &dependency.Config{Name: "dep"}
	hookErr := errors.New("exit 1")
	dep.Hooks.Prelink = recordingHook(rec, "prelink", "dep", hookErr)
	dep.Hooks.Postlink = recordingHook(rec, "postlink", "dep", nil)

	err := RunWithHooks(context.Background(), dep, nil, func(context.Context) error {
		rec.add("body")
		return nil
	})

	var he *HookExecutionError
	if !errors.As(err, &he) {
		t.Fatalf("error = %v, want HookExecutionError", err)
	}
	if he.Phase != PhasePrelink || he.Dependency != "dep" {
		t.Errorf("HookExecutionError = %+v", he)
	}
	if !errors.Is(err, hookErr) {
		t.Error("expected hook error to be wrapped")
	}
	if want := []string{"prelink:dep"}; !reflect.DeepEqual(rec.all(), want) {
		t.Errorf("events = %v, want %v", rec.all(), want)
	}
}

func TestRunWithHooks_PostlinkFailure(t *testing.T) {
	dep := &dependency.Config{Name: "dep"}
	dep.Hooks.Postlink = dependency.HookFunc(func(context.Context, dependency.Values) error {
		return errors.New("cleanup failed")
	})

	err := RunWithHooks(context.Background(), dep, nil, func(context.Context) error { return nil })
	var he *HookExecutionError
	if !errors.As(err, &he) || he.Phase != PhasePostlink {
		t.Fatalf("error = %v, want postlink HookExecutionError", err)
	}
}

func TestRunWithHooks_ParamsPassed(t *testing.T) {
	var got dependency.Values
	dep := &dependency.Config{Name: "dep"}
	dep.Hooks.Prelink = dependency.HookFunc(func(_ context.Context, params dependency.Values) error {
		got = params
		return nil
	})

	params := dependency.Values{"appId": "com.example"}
	if err := RunWithHooks(context.Background(), dep, params, func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if got["appId"] != "com.example" {
		t.Errorf("params = %v", got)
	}
}
