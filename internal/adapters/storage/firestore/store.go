package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/relaylabs/relay-agent/internal/domain"
)

// Store implements domain.ChatLog on Firestore. Messages live under
// chats/{chatID}/messages with server-assigned commit timestamps.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore-backed chat log.
// Uses the project passed (RELAY_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) chatDoc(id domain.ChatID) *firestore.DocumentRef {
	return s.client.Collection("chats").Doc(string(id))
}

func (s *Store) messagesCol(chatID domain.ChatID) *firestore.CollectionRef {
	return s.chatDoc(chatID).Collection("messages")
}

func (s *Store) messageRef(chatID domain.ChatID, msgID domain.MessageID) *firestore.DocumentRef {
	return s.messagesCol(chatID).Doc(string(msgID))
}

type messageDoc struct {
	ChatID    string    `firestore:"chat_id"`
	Author    string    `firestore:"author"`
	Text      string    `firestore:"text"`
	Kind      string    `firestore:"kind"`
	System    bool      `firestore:"system"`
	CreatedAt time.Time `firestore:"created_at,serverTimestamp"`
}

func toDoc(msg *domain.ChatMessage) messageDoc {
	// CreatedAt stays zero so the serverTimestamp sentinel assigns the
	// commit time.
	return messageDoc{
		ChatID: string(msg.ChatID),
		Author: string(msg.AuthorID),
		Text:   msg.Text,
		Kind:   string(msg.Kind),
		System: msg.System,
	}
}

func fromDoc(id string, doc messageDoc) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        domain.MessageID(id),
		ChatID:    domain.ChatID(doc.ChatID),
		AuthorID:  domain.UserID(doc.Author),
		Text:      doc.Text,
		Kind:      domain.MessageKind(doc.Kind),
		System:    doc.System,
		CreatedAt: doc.CreatedAt,
	}
}

// AppendPair writes both records in one transaction: they commit together
// or not at all, so no reader sees a user message without its paired
// system message.
func (s *Store) AppendPair(ctx context.Context, user, system *domain.ChatMessage) error {
	userRef := s.messageRef(user.ChatID, user.ID)
	systemRef := s.messageRef(system.ChatID, system.ID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(userRef, toDoc(user)); err != nil {
			return err
		}
		return tx.Create(systemRef, toDoc(system))
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("firestore AppendPair: message id conflict: %w", err)
		}
		return fmt.Errorf("firestore AppendPair: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, chatID domain.ChatID, limit int) ([]*domain.ChatMessage, error) {
	q := s.messagesCol(chatID).OrderBy("created_at", firestore.Asc)

	if limit > 0 {
		// limitToLast queries cannot be streamed; the SDK requires GetAll.
		snaps, err := q.LimitToLast(limit).Documents(ctx).GetAll()
		if err != nil {
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		out := make([]*domain.ChatMessage, 0, len(snaps))
		for _, snap := range snaps {
			msg, err := decodeSnap(snap)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
		return out, nil
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.ChatMessage
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		msg, err := decodeSnap(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func decodeSnap(snap *firestore.DocumentSnapshot) (*domain.ChatMessage, error) {
	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode messageDoc: %w", err)
	}
	return fromDoc(snap.Ref.ID, doc), nil
}

// Subscribe streams the full record set on every change. Snapshots may
// deliver documents in arbitrary order, so the set is re-sorted by commit
// timestamp before it reaches the callback.
func (s *Store) Subscribe(ctx context.Context, chatID domain.ChatID, fn func([]*domain.ChatMessage)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	snaps := s.messagesCol(chatID).Snapshots(ctx)

	go func() {
		defer snaps.Stop()
		for {
			qs, err := snaps.Next()
			if err != nil {
				return
			}

			var msgs []*domain.ChatMessage
			docs := qs.Documents
			for {
				snap, err := docs.Next()
				if err != nil {
					break
				}
				msg, err := decodeSnap(snap)
				if err != nil {
					continue
				}
				msgs = append(msgs, msg)
			}
			sort.Slice(msgs, func(i, j int) bool {
				return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
			})
			fn(msgs)
		}
	}()

	return cancel, nil
}
