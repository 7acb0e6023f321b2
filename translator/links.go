package translator

import (
	"errors"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// LinkRule turns values of Field into URLs: the value, stripped of Prefix,
// is appended to URL. A value that lacks Prefix has no link.
type LinkRule struct {
	Field  string
	Prefix string
	URL    string
}

func (r LinkRule) Link(v null.String) null.String {
	if !v.Valid || v.String == "" {
		return null.String{}
	}

	value := v.String
	if r.Prefix != "" {
		if !strings.HasPrefix(value, r.Prefix) {
			return null.String{}
		}
		value = strings.TrimPrefix(value, r.Prefix)
	}

	return null.StringFrom(r.URL + value)
}

// DefaultLinkRules links Ensembl transcripts, MGI accessions, Entrez genes,
// SGD loci and Phaeodactylum (Phatr2) gene models.
func DefaultLinkRules() []LinkRule {
	return []LinkRule{
		{Field: "TranscriptID", URL: "http://www.ensembl.org/Homo_sapiens/searchview?species=;idx=;q="},
		{Field: "MGI", Prefix: "MGI:", URL: "http://www.informatics.jax.org/searches/accession_report.cgi?id=MGI%3A"},
		{Field: "EntrezID", URL: "http://www.ncbi.nlm.nih.gov/entrez/query.fcgi?db=gene&cmd=Retrieve&dopt=Graphics&list_uids="},
		{Field: "SGDID", URL: "http://db.yeastgenome.org/cgi-bin/locus.pl?dbid="},
		{Field: "Phatr2 Protein HyperLink", URL: "http://genome.jgi-psf.org/cgi-bin/dispGeneModel?db=Phatr2&tid="},
	}
}

// LinkField names the field CommonLinks adds for a linked field.
func LinkField(field string) string {
	return field + " link"
}

func findRule(rules []LinkRule, field string) (LinkRule, bool) {
	for _, r := range rules {
		if r.Field == field {
			return r, true
		}
	}
	return LinkRule{}, false
}

// CommonLinks adds, after t's fields, a LinkField for every rule whose Field
// t provides. With no rules, DefaultLinkRules is used. t's own fields are
// unchanged.
func CommonLinks(t *Translator, rules ...LinkRule) (*Translator, error) {
	if t == nil {
		return nil, errors.New("common links: nil translator")
	}
	if len(rules) == 0 {
		rules = DefaultLinkRules()
	}

	out := &Translator{
		kind:         KindCommonLinks,
		child:        t,
		defaultField: t.defaultField,
		rules:        append([]LinkRule(nil), rules...),
		links:        make(map[string]LinkRule),
	}

	fields := t.Fields()
	for _, r := range rules {
		if !t.HasField(r.Field) {
			continue
		}
		name := LinkField(r.Field)
		if t.HasField(name) {
			continue
		}
		if _, dup := out.links[name]; dup {
			continue
		}
		out.links[name] = r
		fields = append(fields, name)
	}
	out.setFields(fields)

	return out, nil
}
