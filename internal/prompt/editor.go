package prompt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// DefaultEditor is the command used to open the generated prompt.
const DefaultEditor = "code"

// ErrEditorNotFound is returned when the editor command is not on PATH.
var ErrEditorNotFound = errors.New("editor not found")

// OpenInEditor runs `editor path` and waits for it to exit.
func OpenInEditor(ctx context.Context, editor, path string) error {
	bin, err := exec.LookPath(editor)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrEditorNotFound, editor)
		}
		return fmt.Errorf("failed to locate editor %s: %w", editor, err)
	}
	if err := exec.CommandContext(ctx, bin, path).Run(); err != nil {
		return fmt.Errorf("editor %s failed: %w", editor, err)
	}
	return nil
}
