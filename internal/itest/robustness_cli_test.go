//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 30 * time.Second

type robustCase struct {
	name            string
	args            func(t *testing.T, repoRoot string) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type cliRunResult struct {
	exitCode int
	output   string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	sample := filepath.Join(t.TempDir(), "sample.mp4")
	if err := os.WriteFile(sample, []byte("x"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	cases := []robustCase{
		{
			name: "no files",
			args: staticArgs("go"),
			wantContains: []string{
				"requires at least 1 arg(s), only received 0",
			},
		},
		{
			name: "unknown flag",
			args: staticArgs("go", sample, "--wat"),
			wantContains: []string{
				"unknown flag: --wat",
			},
		},
		{
			name: "count non int",
			args: staticArgs("go", sample, "--count", "nope"),
			wantContains: []string{
				`invalid argument "nope" for "--count"`,
			},
		},
		{
			name: "count zero",
			args: staticArgs("go", sample, "--count", "0"),
			wantContains: []string{
				"invalid config: Count",
			},
		},
		{
			name: "level out of range",
			args: staticArgs("go", sample, "--level", "75"),
			wantContains: []string{
				"invalid config: Level",
			},
		},
		{
			name: "bad env value",
			args: staticArgs("go", sample),
			env: map[string]string{
				"CLIPMIX_PARALLELISM": "lots",
			},
			wantContains: []string{
				"config env:",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_InvalidInputMedia(t *testing.T) {
	requireTools(t)
	repoRoot := mustRepoRoot(t)
	tmp := t.TempDir()
	notMedia := filepath.Join(tmp, "not-media.txt")
	if err := os.WriteFile(notMedia, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cases := []robustCase{
		{
			name: "missing input path",
			args: staticArgs("go", filepath.Join(tmp, "does-not-exist.mp4")),
			wantContains: []string{
				"stat input:",
			},
		},
		{
			name: "input is directory",
			args: staticArgs("go", tmp),
			wantContains: []string{
				"is a directory",
			},
		},
		{
			name: "input is non media file",
			args: staticArgs("go", notMedia, "--count", "1", "--out", filepath.Join(tmp, "out.mp4")),
			wantContains: []string{
				"clip 0: detecting",
				"ffmpeg detect silence:",
			},
			wantNotContains: []string{
				"combining",
			},
		},
		{
			name: "output dir missing",
			args: staticArgs("go", notMedia, "--out", filepath.Join(tmp, "nope", "out.mp4")),
			wantContains: []string{
				"output directory",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func runRobustCases(t *testing.T, repoRoot string, cases []robustCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, repoRoot, tc.args(t, repoRoot), tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

func runCLI(t *testing.T, repoRoot string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmdArgs := append([]string{"run", "./cmd/clipmix"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = repoRoot
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR":           "1",
			"TERM":               "dumb",
			"XDG_CONFIG_HOME":    t.TempDir(),
			"CLIPMIX_LOG_FORMAT": "text",
		},
		env,
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: go %s", cliTimeout, strings.Join(cmdArgs, " "))
	}

	res := cliRunResult{output: string(out)}
	if err == nil {
		res.exitCode = 0
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}

	t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	return cliRunResult{}
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}

	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

func staticArgs(args ...string) func(t *testing.T, _ string) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, _ string) []string {
		t.Helper()
		return append([]string(nil), clone...)
	}
}
