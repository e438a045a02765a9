package repair

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cert-maintainer/pkg/models"
)

// stubProber marks a fixed set of URLs reachable and records probe order.
type stubProber struct {
	reachable map[string]bool
	probed    []string
}

func (s *stubProber) Probe(_ context.Context, rawURL string) models.ProbeResult {
	s.probed = append(s.probed, rawURL)
	return models.ProbeResult{Reachable: s.reachable[rawURL]}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRepairer_KnownReplacementFirst(t *testing.T) {
	prober := &stubProber{reachable: map[string]bool{"https://new.example/cert": true}}
	r := NewRepairer(prober, map[string]string{
		"https://old.example/cert": "https://new.example/cert",
	}, testLogger())

	repaired, entries, stillInvalid := r.RepairAll(context.Background(), []models.CertificationRecord{
		{Name: "Some Cert", URL: "https://old.example/cert"},
	})

	require.Len(t, repaired, 1)
	assert.Equal(t, "https://new.example/cert", repaired[0].URL)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://old.example/cert", entries[0].OldURL)
	assert.Equal(t, "https://new.example/cert", entries[0].NewURL)
	assert.Empty(t, stillInvalid)
	assert.Equal(t, []string{"https://new.example/cert"}, prober.probed, "known replacement tried before slug guesses")
}

func TestRepairer_CourseraSlugVariations(t *testing.T) {
	// First two guesses dead, third works
	prober := &stubProber{reachable: map[string]bool{
		"https://www.coursera.org/professional-certificates/google-it-support": true,
	}}
	r := NewRepairer(prober, nil, testLogger())

	repaired, _, stillInvalid := r.RepairAll(context.Background(), []models.CertificationRecord{
		{Name: "Google IT Support", URL: "https://www.coursera.org/learn/dead-slug"},
	})

	require.Len(t, repaired, 1)
	assert.Equal(t, "https://www.coursera.org/professional-certificates/google-it-support", repaired[0].URL)
	assert.Empty(t, stillInvalid)
	// Variations probed in declared order
	assert.Equal(t, []string{
		"https://www.coursera.org/learn/google-it-support",
		"https://www.coursera.org/specializations/google-it-support",
		"https://www.coursera.org/professional-certificates/google-it-support",
	}, prober.probed)
}

func TestRepairer_UnrepairableStaysInvalid(t *testing.T) {
	prober := &stubProber{}
	r := NewRepairer(prober, nil, testLogger())

	repaired, entries, stillInvalid := r.RepairAll(context.Background(), []models.CertificationRecord{
		{Name: "Gone Cert", URL: "https://www.edx.org/course/gone"},
	})

	assert.Empty(t, repaired)
	assert.Empty(t, entries)
	require.Len(t, stillInvalid, 1)
	assert.Equal(t, "https://www.edx.org/course/gone", stillInvalid[0].URL)
}

func TestRepairer_UnknownDomainHasNoGuesses(t *testing.T) {
	prober := &stubProber{}
	r := NewRepairer(prober, nil, testLogger())

	_, _, stillInvalid := r.RepairAll(context.Background(), []models.CertificationRecord{
		{Name: "Obscure Cert", URL: "https://obscure.example/cert"},
	})

	require.Len(t, stillInvalid, 1)
	assert.Empty(t, prober.probed, "no guessing on domains without known URL patterns")
}

func TestSlugVariations_Domains(t *testing.T) {
	assert.Equal(t, []string{
		"https://www.edx.org/learn/data-science",
		"https://www.edx.org/course/data-science",
	}, slugVariations("Data Science", "https://www.edx.org/course/old"))

	assert.Equal(t, []string{
		"https://www.futurelearn.com/courses/digital-skills",
	}, slugVariations("Digital Skills", "https://www.futurelearn.com/courses/old"))

	assert.Equal(t, []string{
		"https://learn.microsoft.com/en-us/training/paths/azure-fundamentals",
		"https://learn.microsoft.com/en-us/training/modules/azure-fundamentals",
	}, slugVariations("Azure Fundamentals", "https://learn.microsoft.com/old"))

	assert.Nil(t, slugVariations("Anything", "https://unknown.example/x"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "google-it-support", slugify("Google IT Support"))
	assert.Equal(t, "ml-basics", slugify("ML: Basics!"))
	assert.Equal(t, "intro-to-go", slugify("Intro  to   Go"))
	assert.Equal(t, "cloud", slugify("--Cloud--"))
	assert.Equal(t, "", slugify("!!!"))
}
