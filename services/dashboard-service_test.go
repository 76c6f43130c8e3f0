package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusDistribution_FillsAbsentBuckets(t *testing.T) {
	buckets := []bucketCount{
		{ID: "Pending", Count: 3},
		{ID: "Completed", Count: 2},
	}

	distribution := statusDistribution(buckets, 5)

	assert.Equal(t, int64(3), distribution["Pending"])
	assert.Equal(t, int64(0), distribution["InProgress"])
	assert.Equal(t, int64(2), distribution["Completed"])
	assert.Equal(t, int64(5), distribution["All"])
}

func TestStatusDistribution_KeysCarryNoWhitespace(t *testing.T) {
	buckets := []bucketCount{{ID: "In Progress", Count: 4}}

	distribution := statusDistribution(buckets, 4)

	assert.Equal(t, int64(4), distribution["InProgress"])
	assert.NotContains(t, distribution, "In Progress")
}

func TestStatusDistribution_BucketsSumToTotal(t *testing.T) {
	buckets := []bucketCount{
		{ID: "Pending", Count: 2},
		{ID: "In Progress", Count: 3},
		{ID: "Completed", Count: 5},
	}

	distribution := statusDistribution(buckets, 10)

	sum := distribution["Pending"] + distribution["InProgress"] + distribution["Completed"]
	assert.Equal(t, distribution["All"], sum)
}

func TestPriorityDistribution_FillsAbsentBuckets(t *testing.T) {
	buckets := []bucketCount{{ID: "High", Count: 7}}

	distribution := priorityDistribution(buckets)

	assert.Equal(t, int64(0), distribution["Low"])
	assert.Equal(t, int64(0), distribution["Medium"])
	assert.Equal(t, int64(7), distribution["High"])
}

func TestPriorityDistribution_IgnoresUnknownBuckets(t *testing.T) {
	buckets := []bucketCount{
		{ID: "Medium", Count: 1},
		{ID: "Urgent", Count: 9},
	}

	distribution := priorityDistribution(buckets)

	assert.Len(t, distribution, 3)
	assert.Equal(t, int64(1), distribution["Medium"])
}
