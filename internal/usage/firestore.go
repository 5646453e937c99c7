package usage

import (
	"context"
	"errors"

	"ask-api/internal/shared"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

type usageDoc struct {
	LastRequestDate string `firestore:"lastRequestDate"`
	RequestCount    int64  `firestore:"requestCount"`
}

// FirestoreStore keeps one document per user in the users collection
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, collection: usersCollection}
}

func (f *FirestoreStore) doc(userID string) *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(userID)
}

func (f *FirestoreStore) Get(ctx context.Context, userID string) (*shared.UsageRecord, error) {
	snap, err := f.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d usageDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return &shared.UsageRecord{
		UserID:          userID,
		LastRequestDate: d.LastRequestDate,
		RequestCount:    d.RequestCount,
	}, nil
}

func (f *FirestoreStore) Set(ctx context.Context, rec shared.UsageRecord) error {
	_, err := f.doc(rec.UserID).Set(ctx, usageDoc{
		LastRequestDate: rec.LastRequestDate,
		RequestCount:    rec.RequestCount,
	})
	return err
}

func (f *FirestoreStore) Increment(ctx context.Context, userID string, delta int64) error {
	_, err := f.doc(userID).Update(ctx, []firestore.Update{
		{Path: fieldRequestCount, Value: firestore.Increment(delta)},
	})
	if status.Code(err) == codes.NotFound {
		return ErrRecordNotFound
	}
	return err
}

func (f *FirestoreStore) SetIfDate(ctx context.Context, rec shared.UsageRecord, expectedDate string) (bool, error) {
	ref := f.doc(rec.UserID)
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cur := ""
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if v, err := snap.DataAt(fieldLastRequestDate); err == nil {
				cur, _ = v.(string)
			}
		}
		if cur != expectedDate {
			return errDateChanged
		}
		return tx.Set(ref, usageDoc{
			LastRequestDate: rec.LastRequestDate,
			RequestCount:    rec.RequestCount,
		})
	})
	if errors.Is(err, errDateChanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
