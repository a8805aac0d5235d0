package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
ensureOutputDirectory creates the target directory (and parents) if needed.
*/
func ensureOutputDirectory(outputDirPath string) (e *xerr.Error) {
	err := os.MkdirAll(outputDirPath, 0o755)
	if err != nil {
		e = xerr.NewError(err, "create output directory", outputDirPath)
		return e
	}

	tl.Log(tl.Verbose, palette.Blue, "Ensured output directory '%s'", outputDirPath)
	return e
}

/*
WriteArchive saves an archive built by Archive, creating parent directories.
An existing file at that location is overwritten.
*/
func WriteArchive(destinationPath string, archive []byte) (e *xerr.Error) {
	e = ensureOutputDirectory(filepath.Dir(destinationPath))
	if e != nil {
		return e
	}

	writeErr := os.WriteFile(destinationPath, archive, 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write archive file", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved archive to '%s'", destinationPath)
	return e
}

/*
SaveJSON marshals the given value to pretty-printed JSON and writes it to
destinationPath. Used for dispatch summaries next to an export.
*/
func SaveJSON(destinationPath string, value any) (e *xerr.Error) {
	e = ensureOutputDirectory(filepath.Dir(destinationPath))
	if e != nil {
		return e
	}

	jsonBytes, marshalErr := json.MarshalIndent(value, "", "  ")
	if marshalErr != nil {
		e = xerr.NewError(marshalErr, "marshal value to JSON", destinationPath)
		return e
	}

	writeErr := os.WriteFile(destinationPath, jsonBytes, 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write JSON file", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved JSON data to '%s'", destinationPath)
	return e
}
