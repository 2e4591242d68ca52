package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// the portal reports subjects with full catalog names, alerts render
// much better with the abbreviations students actually use
var shortNames = map[string]string{
	"computer organisation and architecture lab":    "COA Lab",
	"computer organisation and architecture":        "COA",
	"operating systems and systems programming":     "OS",
	"operating systems and systems programming lab": "OS Lab",
	"minor project-1":                             "Minor Project",
	"minor project":                               "Minor Project",
	"open source software lab":                    "OSS Lab",
	"information security lab":                    "Info Security Lab",
	"fundamentals of computer security":           "Computer Security",
	"indian constitution & traditional knowledge": "Constitution",
	"foundations of r software":                   "R Programming",
	"database management systems lab":             "DBMS Lab",
	"database management systems":                 "DBMS",
	"software engineering":                        "Software Eng",
	"computer networks lab":                       "Networks Lab",
	"computer networks":                           "Networks",
	"web technologies lab":                        "Web Tech Lab",
	"web technologies":                            "Web Tech",
	"artificial intelligence":                     "AI",
	"machine learning":                            "ML",
	"data structures lab":                         "DSA Lab",
	"data structures":                             "DSA",
	"algorithms":                                  "Algorithms",
	"mathematics":                                 "Math",
	"physics":                                     "Physics",
	"chemistry":                                   "Chemistry",
	"english":                                     "English",
}

// maximum edit distance at which two catalog names are still
// considered the same subject (portal typos, trailing roman numerals)
const fuzzyDistance = 2

// ShortSubjectName maps a full catalog name like
// "COMPUTER ORGANISATION AND ARCHITECTURE(15B11CI311)" to "COA".
// Unknown subjects are truncated rather than dropped.
func ShortSubjectName(full string) string {
	name := full
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	name = NormalizeName(name)

	if short, ok := shortNames[name]; ok {
		return short
	}
	for known, short := range shortNames {
		if matchr.DamerauLevenshtein(name, known) <= fuzzyDistance {
			return short
		}
	}

	words := strings.Fields(strings.TrimSpace(strings.SplitN(full, "(", 2)[0]))
	if len(words) <= 2 {
		return strings.Join(words, " ")
	}
	if strings.Contains(strings.ToUpper(name), "LAB") {
		return words[0] + " Lab"
	}
	return strings.Join(words[:2], " ")
}
