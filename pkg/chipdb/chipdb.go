// SPDX-License-Identifier: GPL-3.0-or-later

// Package chipdb parses the line-oriented chip property database and
// resolves a single chip record into a typed, immutable ChipInfo.
package chipdb

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
)

// ChipInfo is the normalized, immutable property set for one chip
// record. Valid is false unless Load matched a record.
type ChipInfo struct {
	Valid        bool
	ChipName     string
	ChipID       string
	SocketImage  string
	CoreType     string
	PowerSequence string
	ROMSize      int
	EEPROMSize   int
	FuseBlank    []uint16
	ProgramDelay int
	ProgramTries int
	OverProgram  int
	EraseMode    int
	PanelSizing  int
	Include      bool
	FlashChip    bool
	CPWarn       bool
	CalWord      bool
	BandGap      bool
	ICSPOnly     bool
}

// Load scans path line by line looking for a CHIPNAME record matching
// chipname (case-insensitive). Before a match only CHIPNAME lines are
// inspected; once matched, key/value pairs are captured until the first
// blank line.
func Load(path, chipname string) (*ChipInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	defer f.Close()

	info := &ChipInfo{ChipName: strings.ToUpper(chipname)}
	found := false

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := sanitizeLine(scanner.Text())

		if len(line) == 0 {
			if found {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "LIST") {
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			if found {
				log.Printf("chipdb: %s:%d: skipping malformed line %q", path, lineNo, line)
			}
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = unwrap(strings.TrimSpace(value))

		if !found {
			if key == "CHIPNAME" && strings.ToUpper(value) == info.ChipName {
				found = true
			}
			continue
		}

		if err := applyField(info, key, value); err != nil {
			return nil, &ParseError{Line: lineNo, Msg: err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}

	info.Valid = found
	if !found {
		return nil, &ChipNotFoundError{ChipName: chipname}
	}
	return info, nil
}

// List returns every CHIPNAME in path whose uppercased form contains
// the uppercased filter. An empty filter matches everything.
func List(path, filter string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	defer f.Close()

	upperFilter := strings.ToUpper(filter)
	var names []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := sanitizeLine(scanner.Text())
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(key)) != "CHIPNAME" {
			continue
		}
		name := strings.ToUpper(unwrap(strings.TrimSpace(value)))
		if upperFilter == "" || strings.Contains(name, upperFilter) {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	return names, nil
}

func applyField(info *ChipInfo, key, value string) error {
	switch key {
	case "CHIPID":
		info.ChipID = value
	case "SOCKETIMAGE":
		info.SocketImage = strings.ToUpper(value)
	case "ERASEMODE":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		info.EraseMode = n
	case "POWERSEQUENCE":
		info.PowerSequence = strings.ToUpper(value)
	case "PROGRAMDELAY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		info.ProgramDelay = n
	case "PROGRAMTRIES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		info.ProgramTries = n
	case "OVERPROGRAM":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		info.OverProgram = n
	case "PANELSIZING":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		info.PanelSizing = n
	case "CORETYPE":
		info.CoreType = strings.ToUpper(value)
	case "ROMSIZE":
		n, err := strconv.ParseInt(value, 16, 64)
		if err != nil {
			return err
		}
		info.ROMSize = int(n)
	case "EEPROMSIZE":
		n, err := strconv.ParseInt(value, 16, 64)
		if err != nil {
			return err
		}
		info.EEPROMSize = int(n)
	case "FUSEBLANK":
		info.FuseBlank = info.FuseBlank[:0]
		for _, tok := range strings.Fields(value) {
			n, err := strconv.ParseUint(tok, 16, 16)
			if err != nil {
				return err
			}
			info.FuseBlank = append(info.FuseBlank, uint16(n))
		}
	case "INCLUDE":
		info.Include = strings.ToUpper(value) == "Y"
	case "FLASHCHIP":
		info.FlashChip = strings.ToUpper(value) == "Y"
	case "CPWARN":
		info.CPWarn = strings.ToUpper(value) == "Y"
	case "CALWORD":
		info.CalWord = strings.ToUpper(value) == "Y"
	case "BANDGAP":
		info.BandGap = strings.ToUpper(value) == "Y"
	case "ICSPONLY":
		info.ICSPOnly = strings.ToUpper(value) == "Y"
	}
	return nil
}

// splitKeyValue splits a "KEY = VALUE" line on its first '=', reporting
// ok=false for lines with no '=' at all.
func splitKeyValue(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return line[:i], line[i+1:], true
}

// unwrap strips a single pair of surrounding double quotes, if present.
func unwrap(s string) string {
	f := strings.IndexByte(s, '"')
	if f < 0 {
		return s
	}
	l := strings.LastIndexByte(s, '"')
	if l <= f {
		return s
	}
	return s[f+1 : l]
}

// sanitizeLine strips control characters below 0x20 (and above 0x7f)
// and collapses leading/repeated spaces.
func sanitizeLine(s string) string {
	out := make([]byte, 0, len(s))
	blank := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7f {
			continue
		}
		if c == ' ' && blank {
			continue
		}
		blank = c == ' '
		out = append(out, c)
	}
	return string(out)
}
