package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppendStatus appends a history entry when the booking's current status is
// one of expectCurrent. The guard and the append run as one conditional
// update, so a concurrent transition cannot slip in between.
func (repo *MongoBookingRepo) AppendStatus(ctx context.Context, id string, expectCurrent []string, entry models.StatusEntry) (bool, error) {
	filter := bson.M{
		"id":    id,
		"$expr": currentStatusIs(expectCurrent...),
	}
	update := bson.M{
		"$push": bson.M{"statusHistory": entry},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// ProposeSlot stores a provider-proposed alternate slot and appends the
// update-time entry; only legal while the booking is confirmed.
func (repo *MongoBookingRepo) ProposeSlot(ctx context.Context, id string, slot models.TimeSlot, entry models.StatusEntry) (bool, error) {
	filter := bson.M{
		"id":    id,
		"$expr": currentStatusIs(models.StatusConfirmed),
	}
	update := bson.M{
		"$set":  bson.M{"updatedSlot": slot, "updatedAt": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// ResolveProposedSlot resolves a pending time proposal. Accepting copies the
// proposal into timeSlot via an aggregation-pipeline update so the copy and
// the history append are one atomic write; either way the proposal is cleared.
func (repo *MongoBookingRepo) ResolveProposedSlot(ctx context.Context, id string, accept bool, entry models.StatusEntry) (bool, error) {
	filter := bson.M{
		"id":          id,
		"updatedSlot": bson.M{"$exists": true},
		"$expr":       currentStatusIs(models.StatusUpdateTime),
	}

	if accept {
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "timeSlot", Value: "$updatedSlot"},
				{Key: "statusHistory", Value: bson.D{
					{Key: "$concatArrays", Value: bson.A{"$statusHistory", bson.A{entry}}},
				}},
				{Key: "updatedAt", Value: time.Now().UTC()},
			}}},
			bson.D{{Key: "$unset", Value: "updatedSlot"}},
		}
		return repo.conditionalUpdate(ctx, filter, pipeline)
	}

	update := bson.M{
		"$unset": bson.M{"updatedSlot": ""},
		"$push":  bson.M{"statusHistory": entry},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// ClaimOTP stores the verification code if none exists yet. A false result
// means another issuance won the claim; the caller re-reads the stored code.
func (repo *MongoBookingRepo) ClaimOTP(ctx context.Context, id string, code string) (bool, error) {
	filter := bson.M{
		"id": id,
		"$or": bson.A{
			bson.M{"otp": ""},
			bson.M{"otp": bson.M{"$exists": false}},
		},
	}
	update := bson.M{
		"$set": bson.M{"otp": code, "updatedAt": time.Now().UTC()},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// MarkOTPVerified flips otpVerified and appends the in-progress entry in one
// conditional update, guarded on an exact code match and confirmed status.
func (repo *MongoBookingRepo) MarkOTPVerified(ctx context.Context, id string, code string, entry models.StatusEntry) (bool, error) {
	filter := bson.M{
		"id":          id,
		"otp":         code,
		"otpVerified": false,
		"$expr":       currentStatusIs(models.StatusConfirmed),
	}
	update := bson.M{
		"$set":  bson.M{"otpVerified": true, "updatedAt": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// SetCompletionFlag records one party's completion acknowledgement; only
// legal once the verification code has been validated.
func (repo *MongoBookingRepo) SetCompletionFlag(ctx context.Context, id string, byProvider bool) (bool, error) {
	field := "completedByCustomer"
	if byProvider {
		field = "completedByProvider"
	}
	filter := bson.M{
		"id":          id,
		"otpVerified": true,
	}
	update := bson.M{
		"$set": bson.M{field: true, "updatedAt": time.Now().UTC()},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// CompleteOnce appends the completed entry when both completion flags are set
// and the booking is not already completed. When customer and provider race,
// the status guard lets exactly one caller through.
func (repo *MongoBookingRepo) CompleteOnce(ctx context.Context, id string, entry models.StatusEntry) (bool, error) {
	filter := bson.M{
		"id":                  id,
		"completedByCustomer": true,
		"completedByProvider": true,
		"$expr":               currentStatusNot(models.StatusCompleted),
	}
	update := bson.M{
		"$push": bson.M{"statusHistory": entry},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// ReplacePayment overwrites the payment sub-ledger if the stored version
// matches the one the caller read. A false result signals a concurrent
// ledger mutation; the caller re-fetches and retries.
func (repo *MongoBookingRepo) ReplacePayment(ctx context.Context, id string, expectedVersion int64, booking *models.Booking) (bool, error) {
	filter := bson.M{
		"id":      id,
		"version": expectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"paymentMethod":  booking.PaymentMethod,
			"paymentStatus":  booking.PaymentStatus,
			"paidBy":         booking.PaidBy,
			"splitLinksSent": booking.SplitLinksSent,
			"updatedAt":      time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

// SetFeedback records the customer's rating and review on a completed booking.
func (repo *MongoBookingRepo) SetFeedback(ctx context.Context, id string, customerID string, rating int, review string) (bool, error) {
	filter := bson.M{
		"id":       id,
		"customer": customerID,
		"$expr":    currentStatusIs(models.StatusCompleted),
	}
	update := bson.M{
		"$set": bson.M{"rating": rating, "review": review, "updatedAt": time.Now().UTC()},
	}
	return repo.conditionalUpdate(ctx, filter, update)
}

func (repo *MongoBookingRepo) conditionalUpdate(ctx context.Context, filter bson.M, update interface{}) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return false, fmt.Errorf("conditional booking update failed: %w", err)
	}
	return res.MatchedCount > 0, nil
}
