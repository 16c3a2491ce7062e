package webcat

import (
	"encoding/xml"
	"fmt"

	"webcat-submit/pkg/textutil"

	"github.com/antzucaro/matchr"
)

// minSimilarity is the lowest Jaro-Winkler score a fuzzy assignment match
// may have.
const minSimilarity = 0.85

type xmlExclude struct {
	Pattern string `xml:"pattern,attr"`
}

type xmlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlTransport struct {
	Uri        string     `xml:"uri,attr"`
	Params     []xmlParam `xml:"param"`
	FileParams []xmlParam `xml:"file-param"`
}

type xmlAssignment struct {
	Name      string       `xml:"name,attr"`
	Excludes  []xmlExclude `xml:"exclude"`
	Transport xmlTransport `xml:"transport"`
}

type xmlGroup struct {
	Name        string          `xml:"name,attr"`
	Assignments []xmlAssignment `xml:"assignment"`
}

type xmlRoot struct {
	XMLName  xml.Name     `xml:"submission-targets"`
	Excludes []xmlExclude `xml:"exclude"`
	Groups   []xmlGroup   `xml:"assignment-group"`
}

func patterns(excludes []xmlExclude) []string {
	out := make([]string, 0, len(excludes))
	for _, e := range excludes {
		if e.Pattern == "" {
			continue
		}
		out = append(out, e.Pattern)
	}
	return out
}

func params(in []xmlParam) []TransportParam {
	out := make([]TransportParam, len(in))
	for i, p := range in {
		out[i] = TransportParam{Name: p.Name, Value: p.Value}
	}
	return out
}

// ParseTargets parses a submission targets document served from url.
func ParseTargets(url string, data []byte) (SubmissionRoot, error) {
	var root xmlRoot
	err := xml.Unmarshal(data, &root)
	if err != nil {
		return SubmissionRoot{}, fmt.Errorf("parse submission targets: %w", err)
	}

	out := SubmissionRoot{
		Url:      url,
		Excludes: patterns(root.Excludes),
	}
	for _, g := range root.Groups {
		group := AssignmentGroup{Name: g.Name}
		for _, a := range g.Assignments {
			excludes := append(append([]string{}, out.Excludes...), patterns(a.Excludes)...)
			group.Assignments = append(group.Assignments, Assignment{
				Name:     a.Name,
				Group:    g.Name,
				Excludes: excludes,
				Transport: Transport{
					Uri:        a.Transport.Uri,
					Params:     params(a.Transport.Params),
					FileParams: params(a.Transport.FileParams),
				},
			})
		}
		out.Groups = append(out.Groups, group)
	}

	return out, nil
}

func similarity(a, b string) float64 {
	return matchr.JaroWinkler(textutil.NormalizeName(a), textutil.NormalizeName(b), false)
}

// FindAssignment looks up an assignment by group and name. Exact names win,
// otherwise the closest assignment name (by Jaro-Winkler) is picked from the
// groups named exactly like group, or from every close enough group when no
// group has that exact name.
func FindAssignment(roots []SubmissionRoot, group, name string) (Assignment, error) {
	var candidates []AssignmentGroup
	for _, root := range roots {
		for _, g := range root.Groups {
			if g.Name == group {
				candidates = append(candidates, g)
			}
		}
	}
	for _, g := range candidates {
		for _, a := range g.Assignments {
			if a.Name == name {
				return a, nil
			}
		}
	}

	if len(candidates) == 0 {
		for _, root := range roots {
			for _, g := range root.Groups {
				if similarity(g.Name, group) >= minSimilarity {
					candidates = append(candidates, g)
				}
			}
		}
	}

	var best Assignment
	bestScore := 0.0
	for _, g := range candidates {
		for _, a := range g.Assignments {
			score := similarity(a.Name, name)
			if score >= minSimilarity && score > bestScore {
				best = a
				bestScore = score
			}
		}
	}
	if bestScore == 0 {
		return Assignment{}, fmt.Errorf("%w: %s / %s", ErrAssignmentNotFound, group, name)
	}
	return best, nil
}
