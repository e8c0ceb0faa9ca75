package inquiry

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dealer-support-chat/internal/database"
	"dealer-support-chat/internal/model"
)

// DynamoRepository expects:
//   - Inquiries, hash key inquiryId, GSI byCustomerKey (customerKey, createdAt)
//   - InquiryMessages, hash key messageId, GSI byInquiry (inquiryId, createdAt)
type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) *DynamoRepository {
	return &DynamoRepository{db: db}
}

func inquiryKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"inquiryId": database.AttrString(id)}
}

func messageKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"messageId": database.AttrString(id)}
}

func timeAttr(t time.Time) (types.AttributeValue, error) {
	return attributevalue.Marshal(t)
}

func (r *DynamoRepository) CreateInquiry(ctx context.Context, inquiry model.InquiryItem, seed model.MessageItem) error {
	last := seed.CreatedAt
	inquiry.MessageCount = 1
	inquiry.LastMessageAt = &last

	return r.db.Client.PutNewItems(ctx,
		database.NewItem{Table: model.InquiriesTable, KeyAttr: "inquiryId", Item: inquiry},
		database.NewItem{Table: model.MessagesTable, KeyAttr: "messageId", Item: seed},
	)
}

func (r *DynamoRepository) GetInquiry(ctx context.Context, id string) (model.InquiryItem, error) {
	var inquiry model.InquiryItem
	err := r.db.Client.GetItem(ctx, model.InquiriesTable, inquiryKey(id), &inquiry)
	if err != nil {
		if isNotFound(err) {
			return model.InquiryItem{}, ErrNotFound
		}
		return model.InquiryItem{}, err
	}
	return inquiry, nil
}

func (r *DynamoRepository) FindLatestByCustomerKey(ctx context.Context, customerKey string) (model.InquiryItem, error) {
	items, err := r.ListInquiriesByCustomerKey(ctx, customerKey)
	if err != nil {
		return model.InquiryItem{}, err
	}
	latest, ok := latestCreated(items)
	if !ok {
		return model.InquiryItem{}, ErrNotFound
	}
	return latest, nil
}

func (r *DynamoRepository) FindLatestBySession(ctx context.Context, sessionToken, customerKey string) (model.InquiryItem, error) {
	items, err := r.ListInquiriesByCustomerKey(ctx, customerKey)
	if err != nil {
		return model.InquiryItem{}, err
	}
	matching := make([]model.InquiryItem, 0, len(items))
	for _, item := range items {
		if item.SessionToken == sessionToken {
			matching = append(matching, item)
		}
	}
	latest, ok := latestCreated(matching)
	if !ok {
		return model.InquiryItem{}, ErrNotFound
	}
	return latest, nil
}

func (r *DynamoRepository) ListInquiries(ctx context.Context) ([]model.InquiryItem, error) {
	items, err := r.db.Client.ScanAll(ctx, model.InquiriesTable)
	if err != nil {
		return nil, err
	}
	inquiries, err := unmarshalInquiries(items)
	if err != nil {
		return nil, err
	}
	sortByActivity(inquiries)
	return inquiries, nil
}

func (r *DynamoRepository) ListInquiriesByCustomerKey(ctx context.Context, customerKey string) ([]model.InquiryItem, error) {
	items, err := r.db.Client.QueryAll(
		ctx,
		model.InquiriesTable,
		aws.String(model.InquiriesByCustomerKeyIndex),
		"customerKey = :customerKey",
		map[string]types.AttributeValue{
			":customerKey": database.AttrString(customerKey),
		},
	)
	if err != nil {
		return nil, err
	}
	inquiries, err := unmarshalInquiries(items)
	if err != nil {
		return nil, err
	}
	sortByActivity(inquiries)
	return inquiries, nil
}

func (r *DynamoRepository) UpdateContact(ctx context.Context, id string, contact model.Contact, updatedAt time.Time) error {
	updatedAV, err := timeAttr(updatedAt)
	if err != nil {
		return err
	}

	updateExpr := "SET #updatedAt = :updatedAt"
	values := map[string]types.AttributeValue{":updatedAt": updatedAV}
	names := map[string]string{"#updatedAt": "updatedAt"}

	fields := []struct {
		attr, value string
	}{
		{"customerName", contact.Name},
		{"customerEmail", contact.Email},
		{"customerPhone", contact.Phone},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		updateExpr += ", #" + f.attr + " = :" + f.attr
		values[":"+f.attr] = database.AttrString(f.value)
		names["#"+f.attr] = f.attr
	}

	return r.updateInquiry(ctx, id, updateExpr, values, names)
}

func (r *DynamoRepository) UpdateStatus(ctx context.Context, id string, status model.InquiryStatus, updatedAt time.Time) error {
	updatedAV, err := timeAttr(updatedAt)
	if err != nil {
		return err
	}
	return r.updateInquiry(
		ctx,
		id,
		"SET #status = :status, #updatedAt = :updatedAt",
		map[string]types.AttributeValue{
			":status":    database.AttrString(string(status)),
			":updatedAt": updatedAV,
		},
		map[string]string{
			"#status":    "status",
			"#updatedAt": "updatedAt",
		},
	)
}

func (r *DynamoRepository) UpdateAssignment(ctx context.Context, id string, agent *string, updatedAt time.Time) error {
	updatedAV, err := timeAttr(updatedAt)
	if err != nil {
		return err
	}

	values := map[string]types.AttributeValue{":updatedAt": updatedAV}
	names := map[string]string{
		"#updatedAt":  "updatedAt",
		"#assignedTo": "assignedTo",
	}

	updateExpr := "SET #updatedAt = :updatedAt REMOVE #assignedTo"
	if agent != nil {
		updateExpr = "SET #updatedAt = :updatedAt, #assignedTo = :assignedTo"
		values[":assignedTo"] = database.AttrString(*agent)
	}

	return r.updateInquiry(ctx, id, updateExpr, values, names)
}

// DeleteInquiry removes the messages before the inquiry row. An interrupted
// delete leaves the inquiry in place to retry, never orphaned messages.
func (r *DynamoRepository) DeleteInquiry(ctx context.Context, id string) error {
	if _, err := r.GetInquiry(ctx, id); err != nil {
		return err
	}

	messages, err := r.ListMessages(ctx, id)
	if err != nil {
		return err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(messages))
	for _, msg := range messages {
		keys = append(keys, messageKey(msg.ID))
	}
	if err := r.db.Client.BatchDeleteItems(ctx, model.MessagesTable, keys); err != nil {
		return err
	}

	err = r.db.Client.DeleteItemIfExists(ctx, model.InquiriesTable, inquiryKey(id), "inquiryId", nil)
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *DynamoRepository) AppendMessage(ctx context.Context, msg model.MessageItem) error {
	createdAV, err := timeAttr(msg.CreatedAt)
	if err != nil {
		return err
	}

	err = r.updateInquiry(
		ctx,
		msg.InquiryID,
		"SET #lastMessageAt = :createdAt, #updatedAt = :createdAt ADD #messageCount :one",
		map[string]types.AttributeValue{
			":createdAt": createdAV,
			":one":       &types.AttributeValueMemberN{Value: "1"},
		},
		map[string]string{
			"#lastMessageAt": "lastMessageAt",
			"#updatedAt":     "updatedAt",
			"#messageCount":  "messageCount",
		},
	)
	if err != nil {
		return err
	}

	return r.db.Client.PutItem(ctx, model.MessagesTable, msg)
}

func (r *DynamoRepository) GetMessage(ctx context.Context, id string) (model.MessageItem, error) {
	var msg model.MessageItem
	err := r.db.Client.GetItem(ctx, model.MessagesTable, messageKey(id), &msg)
	if err != nil {
		if isNotFound(err) {
			return model.MessageItem{}, ErrNotFound
		}
		return model.MessageItem{}, err
	}
	return msg, nil
}

func (r *DynamoRepository) ListMessages(ctx context.Context, inquiryID string) ([]model.MessageItem, error) {
	items, err := r.db.Client.QueryAll(
		ctx,
		model.MessagesTable,
		aws.String(model.MessagesByInquiryIndex),
		"inquiryId = :inquiryId",
		map[string]types.AttributeValue{
			":inquiryId": database.AttrString(inquiryID),
		},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]model.MessageItem, 0, len(items))
	for _, item := range items {
		var msg model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	sortMessages(messages)
	return messages, nil
}

func (r *DynamoRepository) DeleteMessage(ctx context.Context, id string) error {
	var deleted model.MessageItem
	err := r.db.Client.DeleteItemIfExists(ctx, model.MessagesTable, messageKey(id), "messageId", &deleted)
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}

	remaining, err := r.ListMessages(ctx, deleted.InquiryID)
	if err != nil {
		return err
	}

	names := map[string]string{
		"#messageCount":  "messageCount",
		"#lastMessageAt": "lastMessageAt",
	}
	values := map[string]types.AttributeValue{
		":count": &types.AttributeValueMemberN{Value: strconv.Itoa(len(remaining))},
	}
	updateExpr := "SET #messageCount = :count REMOVE #lastMessageAt"
	if n := len(remaining); n > 0 {
		lastAV, err := timeAttr(remaining[n-1].CreatedAt)
		if err != nil {
			return err
		}
		values[":last"] = lastAV
		updateExpr = "SET #messageCount = :count, #lastMessageAt = :last"
	}

	err = r.updateInquiry(ctx, deleted.InquiryID, updateExpr, values, names)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (r *DynamoRepository) updateInquiry(
	ctx context.Context,
	id string,
	updateExpr string,
	values map[string]types.AttributeValue,
	names map[string]string,
) error {
	err := r.db.Client.UpdateItemIfExists(ctx, model.InquiriesTable, inquiryKey(id), "inquiryId", updateExpr, values, names, nil)
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func unmarshalInquiries(items []map[string]types.AttributeValue) ([]model.InquiryItem, error) {
	inquiries := make([]model.InquiryItem, 0, len(items))
	for _, item := range items {
		var inquiry model.InquiryItem
		if err := attributevalue.UnmarshalMap(item, &inquiry); err != nil {
			return nil, err
		}
		inquiries = append(inquiries, inquiry)
	}
	return inquiries, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrItemNotFound)
}
