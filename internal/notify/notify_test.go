package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"webcat-submit/internal/components/telemetry"
	"webcat-submit/internal/render"
	"webcat-submit/internal/scrapers/webcat"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func testRecord() *webcat.ResultRecord {
	return &webcat.ResultRecord{
		AssignmentName:      "Project 2",
		StudentName:         "Ada Lovelace",
		SubmittedAt:         "Sep 12, 2024",
		TotalScore:          "72.5/100.0",
		CoveragePercentText: "Problem coverage: 58%",
		DiagnosticMessages:  []string{"Maze.solve() fails on borders"},
	}
}

func TestSummary(t *testing.T) {
	summary := Summary(testRecord(), render.View{ResultsUrl: "https://webcat.example.edu/results?id=7"})
	require.Equal(t, `Assignment: Project 2
Student: Ada Lovelace
Submitted: Sep 12, 2024
Score: 72.5/100.0 (72.5%)
Problem coverage: 58%

Fix These Issues:
- Maze.solve() fails on borders

https://webcat.example.edu/results?id=7
`, summary)

	summary = Summary(nil, render.View{Queued: true})
	require.Equal(t, "No summary information available\n\nThe submission is still queued for grading.\n", summary)
}

func TestMailerSend(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025/tcp", "1080/tcp"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Skipf("could not start smtp container: %s", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	smtpPort, err := container.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)
	webPort, err := container.MappedPort(ctx, "1080/tcp")
	require.NoError(t, err)

	mailer := NewMailer(Config{
		Smtp: SmtpConfig{
			Server:       host,
			Port:         smtpPort.Int(),
			EmailAddress: "webcat@example.edu",
			Password:     "default",
		},
		To: []string{"ada@example.edu"},
	}, &telemetry.Recorder{})

	err = mailer.Send(ctx, "Web-CAT: Project 2", testRecord(), render.View{})
	require.NoError(t, err)

	res, err := resty.New().R().Get(fmt.Sprintf("http://%s:%s/messages/1.plain", host, webPort.Port()))
	require.NoError(t, err)
	require.Contains(t, res.String(), "Score: 72.5/100.0 (72.5%)")
}
