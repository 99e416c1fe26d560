package mongodb

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// GenerateIDString generates a new UUID string for use as a document ID
func GenerateIDString() string {
	return uuid.New().String()
}

// Now returns the current time in UTC, truncated to milliseconds to match
// BSON datetime precision
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// BuildUpdateWithTimestamp builds a $set update document with updatedAt set
func BuildUpdateWithTimestamp(fields bson.M) bson.M {
	set := bson.M{"updatedAt": Now()}
	for k, v := range fields {
		set[k] = v
	}
	return bson.M{"$set": set}
}

// SortAscending returns a sort document for ascending order on a field
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortDescending returns a sort document for descending order on a field
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}
