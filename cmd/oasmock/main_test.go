package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain registers the oasmock binary for scripts.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"oasmock": run,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			for _, k := range []string{"OASMOCK_AI_PROVIDER", "OASMOCK_SPECS", "OASMOCK_LISTEN"} {
				env.Setenv(k, "")
			}
			return nil
		},
	})
}
