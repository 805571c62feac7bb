package cmd

import (
	"os"
	"testing"

	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/config"
	"github.com/dopejs/tmplvars/internal/template"
)

func TestCompleteEntityRefs(t *testing.T) {
	setTestHome(t)
	resetFlags(rootCmd)
	store := catalog.NewFileStore(config.DefaultTemplatePath(), nil)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"alpha", "beta", "alpine"} {
		if _, err := store.AddEntity(template.Entity{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	names, directive := completeEntityRefs(nil, nil, "")
	if directive != 4 { // cobra.ShellCompDirectiveNoFileComp = 4
		t.Errorf("directive = %d", directive)
	}
	if len(names) != 3 {
		t.Errorf("expected 3 names, got %d: %v", len(names), names)
	}

	names, _ = completeEntityRefs(nil, nil, "al")
	if len(names) != 2 || names[0] != "alpha" || names[1] != "alpine" {
		t.Errorf("prefix completion = %v", names)
	}

	names, _ = completeEntityRefs(nil, []string{"alpha"}, "")
	if len(names) != 0 {
		t.Errorf("second arg completion = %v", names)
	}
}

func TestCompleteVariableTypes(t *testing.T) {
	names, _ := completeVariableTypes(nil, nil, "")
	if len(names) != len(template.VariableTypes) {
		t.Errorf("types = %v", names)
	}
}

func TestRunCompletion(t *testing.T) {
	tests := []struct {
		shell   string
		wantErr bool
	}{
		{"zsh", false},
		{"bash", false},
		{"fish", false},
		{"powershell", false},
		{"invalid", false}, // prints error but doesn't return error
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			// Redirect stdout to avoid noise
			old := os.Stdout
			_, w, _ := os.Pipe()
			os.Stdout = w

			err := runCompletion(completionCmd, []string{tt.shell})

			w.Close()
			os.Stdout = old

			if (err != nil) != tt.wantErr {
				t.Errorf("runCompletion(%q) error = %v, wantErr %v", tt.shell, err, tt.wantErr)
			}
		})
	}
}
