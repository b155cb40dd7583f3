package queue

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestEncodeMessageDefaultsVersion(t *testing.T) {
	payload, err := EncodeMessage(Message{Type: EventMediaCreated, MediaID: "m1", PublicID: "media/x"})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
}

func TestDecodeMessageRejectsUnknownType(t *testing.T) {
	if _, err := DecodeMessage([]byte(`{"type":"media.renamed"}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

type fakeSQS struct {
	input *sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSQS{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.example/queue"}

	if err := client.Send(context.Background(), Message{Type: EventMediaDeleted, MediaID: "m1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if aws.ToString(fake.input.QueueUrl) != "https://sqs.example/queue" {
		t.Fatalf("unexpected queue url %q", aws.ToString(fake.input.QueueUrl))
	}
	attr, ok := fake.input.MessageAttributes["eventType"]
	if !ok || aws.ToString(attr.StringValue) != EventMediaDeleted {
		t.Fatalf("expected eventType attribute, got %+v", fake.input.MessageAttributes)
	}
}

func TestDiscardAcceptsEveryMessage(t *testing.T) {
	var c Client = Discard{}
	if err := c.Send(context.Background(), Message{Type: EventMediaDeleted, MediaID: "m1"}); err != nil {
		t.Fatalf("Discard.Send: %v", err)
	}
}
