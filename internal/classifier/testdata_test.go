package classifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/stretchr/testify/require"
)

// trainingCSV is a small labeled set with one vocabulary per category.
const trainingCSV = `description,category
pizza dinner restaurant,Food
grocery store vegetables,Food
burger lunch,Food
uber ride airport,Transport
bus ticket,Transport
train fare commute,Transport
spotify subscription,Music
concert tickets band,Music
guitar strings,Music
birthday party gift,Social
drinks with friends,Social
wedding present,Social
laptop charger,Tech
phone case,Tech
cloud hosting server,Tech
laundry service,Other
haircut barber,Other
post office stamps,Other
`

func trainingExamples(t *testing.T) []model.TrainingExample {
	t.Helper()
	examples, err := ReadTrainingData(strings.NewReader(trainingCSV))
	require.NoError(t, err)
	return examples
}

func writeTrainingFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "training_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
