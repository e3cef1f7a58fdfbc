// Package workflow drives the produce-and-upload pipeline: reserve a question
// batch, render it into a video, upload the result, then commit the batch so
// those questions leave the eligible pool. A batch is only committed after the
// upload is confirmed; every failure path releases it back to the pool so no
// question is burned by a video nobody saw.
package workflow
