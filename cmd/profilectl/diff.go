package main

import (
	"fmt"
	"strings"

	"profile_portal_backend/internal/client"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// profileLines renders the editable fields one per line, in form order.
func profileLines(realName, nickname, address, phone, portrait string) string {
	return fmt.Sprintf("real_name: %s\nnickname: %s\naddress: %s\nphone: %s\nportrait: %s\n",
		realName, nickname, address, phone, portrait)
}

// submittedLines renders what an update would leave on the profile, given
// the current profile and the submitted values.
func submittedLines(current client.Profile, upd client.ProfileUpdate, submittedPhone string) string {
	pick := func(v *string, fallback string) string {
		if v == nil {
			return fallback
		}
		return *v
	}
	phoneValue := current.Phone
	if upd.Phone != nil {
		phoneValue = submittedPhone
	}
	portrait := current.Portrait
	switch {
	case upd.Portrait != nil:
		portrait = upd.Portrait.FileName
	case upd.RemovePortrait:
		portrait = ""
	}
	return profileLines(
		pick(upd.RealName, current.RealName),
		pick(upd.Nickname, current.Nickname),
		pick(upd.Address, current.Address),
		phoneValue,
		portrait,
	)
}

// lineDiff returns a unified-style line diff of before and after: "-" for
// removed lines, "+" for added lines and two spaces for unchanged lines.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}
