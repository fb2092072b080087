package tmatch

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Prepare writes template texts that match a subject text exactly. Such a
// template is the starting point for replacing the variable parts of the
// subject with placeholders.
type Prepare struct {
	// Engine is written as engine directive if not empty.
	Engine string
	// Ignore is written as ignore directive if not empty.
	Ignore string
}

var placeEscape = []byte(PlaceOpen + `"` + PlaceOpen + `"` + PlaceClose)

func (p Prepare) Text(tmpl io.Writer, subj io.Reader) (err error) {
	pre := false
	if p.Engine != "" {
		fmt.Fprintf(tmpl, "%c%s %s\n", TagDirective, DirEngine, p.Engine)
		pre = true
	}
	if p.Ignore != "" {
		fmt.Fprintf(tmpl, "%c%s %s\n", TagDirective, DirIgnore, p.Ignore)
		pre = true
	}
	var sep lineSepScanner
	scn := bufio.NewScanner(subj)
	scn.Split(sep.ScanLines)
	first := true
	for scn.Scan() {
		line := scn.Bytes()
		if first {
			first = false
			if pre || len(line) == 0 || line[0] == TagComment || line[0] == TagDirective {
				if _, err = io.WriteString(tmpl, "%%\n"); err != nil {
					return err
				}
			}
		}
		line = bytes.ReplaceAll(line, []byte(PlaceOpen), placeEscape)
		if _, err = tmpl.Write(line); err != nil {
			return err
		}
		if _, err = tmpl.Write(sep); err != nil {
			return err
		}
	}
	return scn.Err()
}

type lineSepScanner []byte

func (lsc *lineSepScanner) ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	// modificated version of bufio.Scan
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		res, cr := dropCR(data[0:i])
		*lsc = data[i-cr : i+1]
		return i + 1, res, nil
	}
	if atEOF {
		res, cr := dropCR(data)
		*lsc = data[len(data)-cr:]
		return len(data), res, nil
	}
	return 0, nil, nil
}

func dropCR(data []byte) ([]byte, int) {
	// modificated version of bufio.dropCR
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[0 : len(data)-1], 1
	}
	return data, 0
}
