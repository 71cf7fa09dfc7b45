// Dopamine Lottery
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Dopamine Lottery.
//
// Dopamine Lottery is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Dopamine Lottery is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Dopamine Lottery.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/pelletier/go-toml/v2"
)

const exampleConfig = "config.example.toml"

var platformNotes = map[string]string{
	"linux": "Run ./dopamine-lottery in a terminal for the text UI.\n" +
		"Keys: t track, r resume last, p pause, s stop, l play, m multi-play, q quit.",
	"windows": "Run dopamine-lottery.exe to add the lottery to the system tray.\n" +
		"Right click the tray icon to track an app and play.",
}

func readmeText(platform string) (string, error) {
	notes, ok := platformNotes[platform]
	if !ok {
		return "", fmt.Errorf("platform '%s' not found in the platforms list", platform)
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Dopamine Lottery v%s (%s)\n\n", config.AppVersion, platform)
	sb.WriteString(notes)
	sb.WriteString("\n\nEvery hour spent in the tracked app earns one lottery chance.\n")
	_, _ = fmt.Fprintf(&sb, "Copy %s to %s in your config directory to change settings.\n", exampleConfig, config.CfgFile)
	sb.WriteString("Command line: -chances, -play, -play-multi, -stats, -history N, -track APP, -version.\n")
	return sb.String(), nil
}

func exampleConfigText() ([]byte, error) {
	data, err := toml.Marshal(&config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("error encoding example config: %w", err)
	}
	return data, nil
}

type zipEntry struct {
	path    string
	arcname string
	data    []byte
}

func createZipFile(zipPath string, entries []zipEntry) error {
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("error creating zip file: %w", err)
	}
	defer func(zipFile *os.File) {
		_ = zipFile.Close()
	}(zipFile)

	zipWriter := zip.NewWriter(zipFile)

	for _, entry := range entries {
		if entry.data != nil {
			err = addBytesToZip(zipWriter, entry.data, entry.arcname)
		} else {
			err = addFileToZip(zipWriter, entry.path, entry.arcname)
		}
		if err != nil {
			_ = zipWriter.Close()
			return fmt.Errorf("error adding %s to zip: %w", entry.arcname, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("error finishing zip: %w", err)
	}
	return nil
}

func addBytesToZip(zipWriter *zip.Writer, data []byte, arcname string) error {
	writer, err := zipWriter.CreateHeader(&zip.FileHeader{
		Name:   arcname,
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = writer.Write(data)
	return err
}

func addFileToZip(zipWriter *zip.Writer, filePath, arcname string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = arcname
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}

func run(args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: go run ./scripts/tasks/utils/makezip <platform> <build_dir> <app_bin> <zip_name>")
	}
	platform, buildDir, appBin, zipName := args[0], args[1], args[2], args[3]

	if _, err := os.Stat(buildDir); os.IsNotExist(err) {
		return fmt.Errorf("the specified directory '%s' does not exist", buildDir)
	}

	appPath := filepath.Join(buildDir, appBin)
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return fmt.Errorf("the specified binary file '%s' does not exist", appPath)
	}

	readme, err := readmeText(platform)
	if err != nil {
		return err
	}
	cfg, err := exampleConfigText()
	if err != nil {
		return err
	}

	entries := []zipEntry{
		{path: appPath, arcname: filepath.Base(appPath)},
		{arcname: "README.txt", data: []byte(readme)},
		{arcname: exampleConfig, data: cfg},
	}
	if _, err := os.Stat("LICENSE"); err == nil {
		entries = append(entries, zipEntry{path: "LICENSE", arcname: "LICENSE.txt"})
	}

	zipPath := filepath.Join(buildDir, zipName)
	_ = os.Remove(zipPath)
	return createZipFile(zipPath, entries)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		_, _ = fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
