package cont

import (
	"context"
)

type ctxKey string

const ClientKey ctxKey = "apiClient"

// PutClient stores the name of the authenticated API client.
func PutClient(c context.Context, client string) context.Context {
	return context.WithValue(c, ClientKey, client)
}

func GetClient(c context.Context) string {
	client, ok := c.Value(ClientKey).(string)
	if !ok {
		return "anonymous"
	}
	return client
}
