package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milbratheduardo/task-manager/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recentTasksLimit = 10

type DashboardService struct {
	TaskCollection *mongo.Collection
	Breaker        *gobreaker.CircuitBreaker
}

func NewDashboardService(taskCollection *mongo.Collection, breaker *gobreaker.CircuitBreaker) *DashboardService {
	return &DashboardService{
		TaskCollection: taskCollection,
		Breaker:        breaker,
	}
}

type DashboardStatistics struct {
	TotalTasks     int64 `json:"totalTasks"`
	PendingTasks   int64 `json:"pendingTasks"`
	CompletedTasks int64 `json:"completedTasks"`
	OverdueTasks   int64 `json:"overdueTasks"`
}

type DashboardCharts struct {
	TaskDistribution   map[string]int64 `json:"taskDistribution"`
	TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
}

type DashboardData struct {
	Statistics  DashboardStatistics  `json:"statistics"`
	Charts      DashboardCharts      `json:"charts"`
	RecentTasks []models.TaskSummary `json:"recentTasks"`
}

// bucketCount is one row of a $group count aggregation.
type bucketCount struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

// GetDashboardData computes the global dashboard view.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	return s.buildDashboard(ctx, bson.M{})
}

// GetUserDashboardData computes the dashboard view scoped to the tasks
// assigned to one user. The recent-tasks list stays global, matching the
// behavior this endpoint has always had.
func (s *DashboardService) GetUserDashboardData(ctx context.Context, userID primitive.ObjectID) (*DashboardData, error) {
	return s.buildDashboard(ctx, bson.M{"assignedTo": userID})
}

func (s *DashboardService) buildDashboard(ctx context.Context, scope bson.M) (*DashboardData, error) {
	now := time.Now()

	total, err := s.TaskCollection.CountDocuments(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %v", err)
	}
	pending, err := s.TaskCollection.CountDocuments(ctx, withScope(scope, bson.M{"status": models.StatusPending}))
	if err != nil {
		return nil, fmt.Errorf("failed to count pending tasks: %v", err)
	}
	completed, err := s.TaskCollection.CountDocuments(ctx, withScope(scope, bson.M{"status": models.StatusCompleted}))
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %v", err)
	}
	overdue, err := s.TaskCollection.CountDocuments(ctx, withScope(scope, bson.M{
		"status":  bson.M{"$ne": models.StatusCompleted},
		"dueDate": bson.M{"$lt": now},
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %v", err)
	}

	statusBuckets, err := s.groupCounts(ctx, "status", scope)
	if err != nil {
		return nil, err
	}
	priorityBuckets, err := s.groupCounts(ctx, "priority", scope)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentTasks(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		Statistics: DashboardStatistics{
			TotalTasks:     total,
			PendingTasks:   pending,
			CompletedTasks: completed,
			OverdueTasks:   overdue,
		},
		Charts: DashboardCharts{
			TaskDistribution:   statusDistribution(statusBuckets, total),
			TaskPriorityLevels: priorityDistribution(priorityBuckets),
		},
		RecentTasks: recent,
	}, nil
}

// groupCounts runs a $group count aggregation over one field, behind the
// circuit breaker when one is configured.
func (s *DashboardService) groupCounts(ctx context.Context, field string, scope bson.M) ([]bucketCount, error) {
	run := func() (interface{}, error) {
		pipeline := mongo.Pipeline{}
		if len(scope) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: scope}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}}})

		cursor, err := s.TaskCollection.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate by %s: %v", field, err)
		}
		defer cursor.Close(ctx)

		var buckets []bucketCount
		if err := cursor.All(ctx, &buckets); err != nil {
			return nil, fmt.Errorf("failed to decode %s aggregation: %v", field, err)
		}
		return buckets, nil
	}

	if s.Breaker != nil {
		result, err := s.Breaker.Execute(run)
		if err != nil {
			return nil, err
		}
		return result.([]bucketCount), nil
	}

	result, err := run()
	if err != nil {
		return nil, err
	}
	return result.([]bucketCount), nil
}

func (s *DashboardService) recentTasks(ctx context.Context) ([]models.TaskSummary, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(recentTasksLimit).
		SetProjection(bson.M{"title": 1, "status": 1, "priority": 1, "dueDate": 1, "createdAt": 1})

	cursor, err := s.TaskCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent tasks: %v", err)
	}
	defer cursor.Close(ctx)

	recent := []models.TaskSummary{}
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, fmt.Errorf("failed to decode recent tasks: %v", err)
	}
	return recent, nil
}

// statusDistribution fills the chart buckets for every known status, keyed
// without whitespace, defaulting absent buckets to zero. The running total
// is reported under "All".
func statusDistribution(buckets []bucketCount, total int64) map[string]int64 {
	distribution := make(map[string]int64)
	for _, status := range []models.TaskStatus{models.StatusPending, models.StatusInProgress, models.StatusCompleted} {
		key := strings.ReplaceAll(string(status), " ", "")
		distribution[key] = countFor(buckets, string(status))
	}
	distribution["All"] = total
	return distribution
}

// priorityDistribution fills the chart buckets for every known priority,
// defaulting absent buckets to zero.
func priorityDistribution(buckets []bucketCount) map[string]int64 {
	distribution := make(map[string]int64)
	for _, priority := range []models.TaskPriority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh} {
		distribution[string(priority)] = countFor(buckets, string(priority))
	}
	return distribution
}

func countFor(buckets []bucketCount, id string) int64 {
	for _, bucket := range buckets {
		if bucket.ID == id {
			return bucket.Count
		}
	}
	return 0
}

func withScope(scope, filter bson.M) bson.M {
	merged := bson.M{}
	for k, v := range scope {
		merged[k] = v
	}
	for k, v := range filter {
		merged[k] = v
	}
	return merged
}
