package main

import "os"

func localBody() string {
	if b := os.Getenv("LOCAL_SQS_BODY"); b != "" {
		return b
	}
	return `{"orderId":"VG-LOCAL000","expiresAt":0}`
}
