package helix

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"

	"helixprint/internal/logging"
	"helixprint/internal/services"
)

// StatusPrinting is the status reported for a started print.
const StatusPrinting = "printing"

// PrintRequest asks the engine to print a modified copy of a file.
type PrintRequest struct {
	OriginalFilename string   `json:"original_filename"`
	TempFilePath     string   `json:"temp_file_path"`
	Modifications    []string `json:"modifications"`
}

// PrintResult describes a started modified print.
type PrintResult struct {
	OriginalFilename string `json:"original_filename"`
	Status           string `json:"status"`
	TempFilename     string `json:"temp_filename"`
	PrintFilename    string `json:"print_filename"`
}

// StartCommand returns the host command that prints publicPath.
func StartCommand(publicPath string) string {
	return fmt.Sprintf(`SDCARD_PRINT_FILE FILENAME="%s"`, publicPath)
}

// PrintModified publishes the temp file under the original basename, tracks
// it, and starts it on the host.
func (e *Engine) PrintModified(ctx context.Context, req PrintRequest) (PrintResult, error) {
	if !e.settings.Enabled {
		return PrintResult{}, ErrDisabled
	}

	original := strings.TrimSpace(req.OriginalFilename)
	if _, err := e.resolver.Resolve(original); err != nil {
		return PrintResult{}, fmt.Errorf("original file %q: %w", original, err)
	}

	tempRel := strings.TrimSpace(req.TempFilePath)
	if !e.resolver.Contains(e.settings.TempDir, tempRel) {
		return PrintResult{}, services.Wrap(ErrInvalidPath, "dispatcher", "", fmt.Sprintf("temp file %q must be inside %s", tempRel, e.settings.TempDir), nil)
	}
	tempAbs, err := e.resolver.Resolve(tempRel)
	if err != nil {
		return PrintResult{}, fmt.Errorf("temp file %q: %w", tempRel, err)
	}
	tempRel, err = e.resolver.Relative(tempAbs)
	if err != nil {
		return PrintResult{}, err
	}

	host := e.currentHost()
	if host == nil {
		return PrintResult{}, services.Wrap(ErrHostUnavailable, "dispatcher", "", "no print host connection", nil)
	}

	public, err := e.publisher.Publish(path.Base(path.Clean(original)), tempAbs)
	if err != nil {
		return PrintResult{}, err
	}

	mods := req.Modifications
	if mods == nil {
		mods = []string{}
	}
	info := PrintInfo{
		OriginalFilename: original,
		TempFilename:     tempRel,
		SymlinkFilename:  public,
		Modifications:    mods,
		StartTime:        float64(e.now().UnixNano()) / 1e9,
		Token:            uuid.NewString(),
	}
	if prev, replaced := e.registry.Put(info); replaced {
		e.retire(prev, info)
	}

	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldOriginalFilename, original),
		logging.String(logging.FieldPrintFilename, public),
	)

	if err := host.SendCommand(ctx, StartCommand(public)); err != nil {
		e.rollback(info, tempAbs)
		logging.ErrorWithContext(logger, "start command failed", "print_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the Moonraker connection and printer state"),
		)
		return PrintResult{}, services.Wrap(ErrHostCommunication, "dispatcher", "start print", public, err)
	}

	logger.Info("modified print started",
		logging.String(logging.FieldEventType, "print_started"),
		logging.Any("modifications", mods),
		logging.String("temp_filename", tempRel),
	)
	e.notifyStarted(ctx, info)

	return PrintResult{
		OriginalFilename: original,
		Status:           StatusPrinting,
		TempFilename:     tempRel,
		PrintFilename:    public,
	}, nil
}

// retire drops a registration replaced by a newer print under the same name.
func (e *Engine) retire(prev, next PrintInfo) {
	e.cancelTimer(prev.Token)
	if prev.TempFilename == next.TempFilename {
		return
	}
	abs, err := e.resolver.Join(prev.TempFilename)
	if err != nil {
		return
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(e.logger, "failed to remove replaced temp file", "temp_remove_failed",
			logging.String("temp_filename", prev.TempFilename),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale temp file stays on disk until the next startup sweep"),
		)
	}
}

func (e *Engine) rollback(info PrintInfo, tempAbs string) {
	if e.registry.RemoveIf(info.SymlinkFilename, info.Token) {
		_, _ = e.publisher.Unpublish(info.SymlinkFilename, tempAbs)
	}
}
