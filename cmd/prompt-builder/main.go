// Command prompt-builder concatenates a project tree into prompt_output.txt
// and opens it in an editor.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/collision.report/internal/fsutil"
	"github.com/banshee-data/collision.report/internal/monitoring"
	"github.com/banshee-data/collision.report/internal/prompt"
	"github.com/banshee-data/collision.report/internal/security"
	"github.com/banshee-data/collision.report/internal/version"
)

var (
	dirFlag     = flag.String("dir", "", "Project directory (read from stdin when empty)")
	rulesFlag   = flag.String("rules", "", "YAML file overriding the preamble and excluded names")
	outFlag     = flag.String("out", prompt.DefaultOutputFile, "Output file")
	editorFlag  = flag.String("editor", prompt.DefaultEditor, "Editor command to open the output with; empty to skip")
	versionFlag = flag.Bool("version", false, "Print version and exit")
	quiet       = flag.Bool("quiet", false, "Suppress diagnostic logging")
)

type options struct {
	dir, rules, out, editor string
}

// readDirectory asks for the project directory on w and reads one line from r.
func readDirectory(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Enter the path of the directory containing the project files: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}
	dir := strings.TrimSpace(line)
	if dir == "" {
		return "", errors.New("no directory given")
	}
	return dir, nil
}

// run builds the prompt and writes it through fsys, then launches the
// editor. The rules file is also read through fsys. Editor failures are
// reported on stdout and do not fail the run.
func run(ctx context.Context, fsys fsutil.FileSystem, o options, stdin io.Reader, stdout io.Writer) error {
	if o.dir == "" {
		dir, err := readDirectory(stdin, stdout)
		if err != nil {
			return err
		}
		o.dir = dir
	}
	if err := security.ValidateOutputPath(o.out); err != nil {
		return fmt.Errorf("invalid output file: %w", err)
	}

	b := prompt.NewBuilder()
	if o.rules != "" {
		rules, err := prompt.LoadRules(fsys, o.rules)
		if err != nil {
			return err
		}
		b = rules.Apply(b)
	}

	text, err := b.Build(o.dir)
	if err != nil {
		return err
	}
	if err := fsys.WriteFile(o.out, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	fmt.Fprintf(stdout, "Prompt generated and saved to %s\n", o.out)

	if o.editor == "" {
		return nil
	}
	switch err := prompt.OpenInEditor(ctx, o.editor, o.out); {
	case errors.Is(err, prompt.ErrEditorNotFound):
		fmt.Fprintf(stdout, "Editor %q was not found. Make sure it is installed and on your PATH.\n", o.editor)
	case err != nil:
		fmt.Fprintf(stdout, "Could not open %s in the editor: %v\n", o.out, err)
	default:
		fmt.Fprintf(stdout, "Opened %s in %s.\n", o.out, o.editor)
	}
	return nil
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.String("prompt-builder"))
		return
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	o := options{dir: *dirFlag, rules: *rulesFlag, out: *outFlag, editor: *editorFlag}
	if err := run(context.Background(), fsutil.OSFileSystem{}, o, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("prompt-builder: %v", err)
	}
}
