package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserService_Mongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("GetUserByID reports not found", func(mt *mtest.T) {
		ns := fmt.Sprintf("%s.%s", mt.Coll.Database().Name(), mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		svc := NewUserService(mt.Coll, mt.Coll)
		_, err := svc.GetUserByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt.T, err, ErrNotFound)
	})

	mt.Run("GetUserByID surfaces a store failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11602,
			Name:    "InterruptedAtShutdown",
			Message: "interrupted at shutdown",
		}))

		svc := NewUserService(mt.Coll, mt.Coll)
		_, err := svc.GetUserByID(context.Background(), primitive.NewObjectID())

		require.Error(mt.T, err)
		assert.NotErrorIs(mt.T, err, ErrNotFound)
	})
}
