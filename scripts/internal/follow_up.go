package internal

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// RunFollowUpOnce runs the follow-up payments for now and prints the report
func RunFollowUpOnce() error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.db.Close()

	resp, err := e.billing.RunFollowUpPayments(context.Background(), time.Now().In(e.cfg.Billing.Location()))
	if err != nil {
		return err
	}

	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
