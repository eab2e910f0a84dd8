// Package yamldoc ingests traceability declarations from YAML documents:
//
//	attributes:
//	  - id: asil
//	    regex: "[ABCD]"
//	relationships:
//	  - forward: validates
//	    reverse: validated_by
//	items:
//	  - id: REQ-1
//	    caption: Brake on obstacle
//	    attributes: {asil: B}
//	    relations: {validated_by: [TST-1]}
//
// Each entry is validated on its own; an invalid entry becomes a warning at
// its line and the rest of the document is still applied.
package yamldoc

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	"github.com/teranos/tracegraph/ixgest"
	"github.com/teranos/tracegraph/logger"
)

// docValidate validates decoded entries; "regexp" checks that a pattern compiles
var docValidate *validator.Validate

func init() {
	docValidate = validator.New()
	_ = docValidate.RegisterValidation("regexp", validateRegexp)
}

func validateRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// AttributeEntry declares an attribute
type AttributeEntry struct {
	ID      string `yaml:"id" validate:"required"`
	Name    string `yaml:"name"`
	Regex   string `yaml:"regex" validate:"required,regexp"`
	Caption string `yaml:"caption"`
}

// RelationshipEntry declares a relation pair; no reverse means external
type RelationshipEntry struct {
	Forward string `yaml:"forward" validate:"required"`
	Reverse string `yaml:"reverse" validate:"omitempty,nefield=Forward"`
}

// ItemEntry declares an item
type ItemEntry struct {
	ID         string              `yaml:"id" validate:"required"`
	Name       string              `yaml:"name"`
	Caption    string              `yaml:"caption"`
	Content    string              `yaml:"content"`
	Attributes map[string]string   `yaml:"attributes" validate:"dive,keys,required,endkeys,required"`
	Relations  map[string][]string `yaml:"relations" validate:"dive,keys,required,endkeys,dive,required"`
}

// SortRuleEntry fixes attribute order for matching items
type SortRuleEntry struct {
	Filter string   `yaml:"filter" validate:"regexp"`
	Order  []string `yaml:"order" validate:"required,min=1,dive,required"`
}

// LinkEntry links sources to targets once every document is ingested
type LinkEntry struct {
	Sources  []string `yaml:"sources"`
	Source   string   `yaml:"source" validate:"required_without=Sources,regexp"`
	Relation string   `yaml:"type" validate:"required"`
	Targets  []string `yaml:"targets"`
	Target   string   `yaml:"target" validate:"required_without=Targets,regexp"`
}

// RelinkEntry moves edges from one target to another
type RelinkEntry struct {
	Remap  string   `yaml:"remap" validate:"required"`
	Target string   `yaml:"target" validate:"required,nefield=Remap"`
	Types  []string `yaml:"type"`
}

// document keeps entries as nodes so each one reports its own line
type document struct {
	Attributes    []yaml.Node `yaml:"attributes"`
	Relationships []yaml.Node `yaml:"relationships"`
	Items         []yaml.Node `yaml:"items"`
	SortRules     []yaml.Node `yaml:"sort_rules"`
	Links         []yaml.Node `yaml:"links"`
	Relinks       []yaml.Node `yaml:"relinks"`
}

// Processor applies YAML documents to an Ingestor
type Processor struct {
	ingestor *ixgest.Ingestor
	logger   *zap.SugaredLogger
}

// NewProcessor creates a Processor feeding in
func NewProcessor(in *ixgest.Ingestor, l *zap.SugaredLogger) *Processor {
	if l == nil {
		l = logger.Logger.Named("ixgest.yaml")
	}
	return &Processor{ingestor: in, logger: l}
}

// ProcessFile reads path and processes it under the name document
func (p *Processor) ProcessFile(path, document string) (int, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrMissingDocument, "read %s: %v", path, err)
	}
	return p.Process(document, source), nil
}

// Process applies every entry of source in the order attributes,
// relationships, items, sort rules, relinks, links. It returns the number of
// entries applied. A document that is not valid YAML is one warning.
func (p *Processor) Process(name string, source []byte) int {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(source))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		p.ingestor.Warn(ixgest.Location{Document: name, Line: yamlErrorLine(err)},
			errors.Wrapf(errors.ErrSyntax, "yaml: %v", err))
		return 0
	}

	applied := 0
	for _, node := range doc.Attributes {
		var e AttributeEntry
		if loc, ok := p.decode(name, &node, &e); ok {
			if p.ingestor.DeclareAttribute(loc, graph.AttributeDefinition{ID: e.ID, Name: e.Name, ValueRegex: e.Regex, Caption: e.Caption}) {
				applied++
			}
		}
	}
	for _, node := range doc.Relationships {
		var e RelationshipEntry
		if loc, ok := p.decode(name, &node, &e); ok {
			if p.ingestor.DeclareRelationPair(loc, e.Forward, e.Reverse) {
				applied++
			}
		}
	}
	for _, node := range doc.Items {
		var e ItemEntry
		if loc, ok := p.decode(name, &node, &e); ok {
			if p.ingestor.DeclareItem(loc, ixgest.ItemDecl{
				ID:         e.ID,
				Name:       e.Name,
				Caption:    e.Caption,
				Content:    strings.TrimRight(e.Content, "\n"),
				Attributes: e.Attributes,
				Relations:  e.Relations,
			}) {
				applied++
			}
		}
	}
	for _, node := range doc.SortRules {
		var e SortRuleEntry
		if loc, ok := p.decode(name, &node, &e); ok {
			if p.ingestor.AddAttributeSortRule(loc, e.Filter, e.Order) {
				applied++
			}
		}
	}
	for _, node := range doc.Relinks {
		var e RelinkEntry
		if loc, ok := p.decode(name, &node, &e); ok {
			p.ingestor.QueueRelink(loc, e.Remap, e.Target, e.Types)
			applied++
		}
	}
	for _, node := range doc.Links {
		var e LinkEntry
		if loc, ok := p.decode(name, &node, &e); ok {
			p.ingestor.QueueLink(loc, ixgest.LinkSpec{
				SourceIDs:   e.Sources,
				SourceRegex: e.Source,
				Relation:    e.Relation,
				TargetIDs:   e.Targets,
				TargetRegex: e.Target,
			})
			applied++
		}
	}

	p.logger.Debugw("Processed document", logger.FieldDocument, name, logger.FieldCount, applied)
	return applied
}

// decode decodes node into entry and validates it
func (p *Processor) decode(name string, node *yaml.Node, entry interface{}) (ixgest.Location, bool) {
	loc := ixgest.Location{Document: name, Line: node.Line}
	if err := node.Decode(entry); err != nil {
		p.ingestor.Warn(loc, errors.Wrapf(errors.ErrSyntax, "yaml: %v", err))
		return loc, false
	}
	if err := docValidate.Struct(entry); err != nil {
		p.ingestor.Warn(loc, validationError(err))
		return loc, false
	}
	return loc, true
}

// validationError turns validator field errors into one ErrSyntax per field
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(errors.ErrSyntax, err.Error())
	}
	var c errors.Collector
	for _, fe := range fieldErrs {
		c.Add(errors.Wrapf(errors.ErrSyntax, "field %s fails %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return c.Err()
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// yamlErrorLine extracts the first line number mentioned in a yaml.v3 error
func yamlErrorLine(err error) int {
	m := lineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
