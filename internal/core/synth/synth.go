// Package synth produces realistic, upper-cased attribute records for nodes.
package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/model"
)

var formTypes = []string{"I-130", "I-485", "I-765", "I-131", "I-90", "N-400", "I-751"}

var receiptPrefixes = []string{"IOE", "EAC", "WAC", "LIN", "SRC", "MSC", "NBC"}

// Synthesizer draws every value from one seeded rng. gofakeit shares the same
// source, so a seed reproduces names and addresses too.
type Synthesizer struct {
	opts Options
	rng  *rand.Rand
	fake *gofakeit.Faker
	asOf time.Time
}

func New(rng *rand.Rand, opts Options) (*Synthesizer, error) {
	if rng == nil {
		return nil, errors.New("synth: rng is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return &Synthesizer{
		opts: opts,
		rng:  rng,
		fake: gofakeit.NewFaker(rng, false),
		asOf: time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC),
	}, nil
}

// Supports reports whether the synthesizer has a schema for nodeType.
func Supports(nodeType string) bool {
	switch nodeType {
	case model.TypePerson, model.TypeName, model.TypeAddress, model.TypePhone,
		model.TypeEmail, model.TypeANumber, model.TypeForm, model.TypeReceipt:
		return true
	}
	return false
}

// Synthesize builds the attribute record for one node.
func (s *Synthesizer) Synthesize(node model.Node) (model.NodeAttributes, error) {
	var (
		name  string
		props model.Properties
	)
	switch node.Type {
	case model.TypePerson:
		name, props = s.person()
	case model.TypeName:
		name = s.fullName()
		props = model.Properties{model.PropNameFull: name}
	case model.TypeAddress:
		name = s.address()
		props = model.Properties{model.PropAddressFull: name}
	case model.TypePhone:
		name = s.phone()
		props = model.Properties{model.PropPhoneNumber: name}
	case model.TypeEmail:
		name = strings.ToUpper(s.fake.Email())
		props = model.Properties{model.PropEmailAddress: name}
	case model.TypeANumber:
		name = s.digits(s.opts.ANumberWidth)
		props = model.Properties{model.PropANumber: name}
	case model.TypeForm:
		ft := formTypes[s.rng.IntN(len(formTypes))]
		name = ft + "-" + s.digits(8)
		props = model.Properties{model.PropFormType: ft, model.PropFormID: name}
	case model.TypeReceipt:
		name = receiptPrefixes[s.rng.IntN(len(receiptPrefixes))] + s.digits(10)
		props = model.Properties{model.PropReceiptNumber: name}
	default:
		return model.NodeAttributes{}, fmt.Errorf("%w: %q", ErrUnsupportedType, node.Type)
	}

	return model.NodeAttributes{
		NodeID:     node.ID,
		NodeType:   node.Type,
		NodeName:   name,
		Properties: props,
	}, nil
}

// SynthesizeAll builds records for every node of a supported type. Unsupported
// nodes are skipped and counted.
func (s *Synthesizer) SynthesizeAll(nodes []model.Node) ([]model.NodeAttributes, int) {
	out := make([]model.NodeAttributes, 0, len(nodes))
	skipped := 0
	for _, n := range nodes {
		rec, err := s.Synthesize(n)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}

func (s *Synthesizer) person() (string, model.Properties) {
	cands := s.nameVariants(s.fake.FirstName(), s.fake.LastName())
	display := make([]model.Variant, len(cands))
	for i, c := range cands {
		display[i] = model.Variant{Value: c.display, Tag: c.tag}
	}

	dates := s.BirthDateVariants(s.birthDate())
	anumbers := s.ANumbers()

	props := model.Properties{
		model.PropNameFull:      display[0].Value,
		model.PropNameFullList:  display,
		model.PropNameList:      nameRecords(cands),
		model.PropBirthDate:     dates[0].Value,
		model.PropBirthDateList: dates,
		model.PropANumberList:   anumbers,
	}
	if len(anumbers) > 0 {
		props[model.PropANumberPrimary] = anumbers[0].Value
	} else {
		props[model.PropANumberPrimary] = nil
	}
	return display[0].Value, props
}

// birthDate picks a date that puts the person between MinAge and MaxAge years old.
func (s *Synthesizer) birthDate() time.Time {
	youngest := s.asOf.AddDate(-s.opts.MinAge, 0, 0)
	oldest := s.asOf.AddDate(-s.opts.MaxAge, 0, 0)
	span := int(youngest.Sub(oldest).Hours() / 24)
	return oldest.AddDate(0, 0, common.UniformInt(s.rng, 0, span))
}

func (s *Synthesizer) fullName() string {
	return strings.ToUpper(s.fake.FirstName() + " " + s.fake.LastName())
}

func (s *Synthesizer) address() string {
	return strings.ToUpper(fmt.Sprintf("%s, %s, %s %s",
		s.fake.Street(), s.fake.City(), s.fake.StateAbr(), s.fake.Zip()))
}

func (s *Synthesizer) phone() string {
	return fmt.Sprintf("%d%s", 2+s.rng.IntN(8), s.digits(9))
}
