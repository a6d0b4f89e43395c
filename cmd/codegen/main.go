package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"amc/internal/config"
	"amc/internal/export"
	"amc/internal/qrimg"
	"amc/internal/roster"
)

// codegen renders the day's faculty session-token QR images and the
// student identity QR images, and mails each faculty member their token.
func main() {
	var (
		genTokens   = flag.Bool("tokens", false, "generate and mail faculty session tokens")
		genIdentity = flag.Bool("identity", false, "generate student identity codes")
	)
	flag.Parse()
	if !*genTokens && !*genIdentity {
		*genTokens = true
		*genIdentity = true
	}

	cfg := config.Load()
	if err := cfg.ValidateGenerator(); err != nil {
		log.Printf("invalid configuration: %v", err)
		os.Exit(config.ExitConfig)
	}

	ctx := context.Background()
	if *genTokens {
		if err := generateTokens(ctx, cfg); err != nil {
			log.Printf("%v", err)
			os.Exit(config.ExitResource)
		}
	}
	if *genIdentity {
		if err := generateIdentity(cfg); err != nil {
			log.Printf("%v", err)
			os.Exit(config.ExitResource)
		}
	}
}

func generateTokens(ctx context.Context, cfg config.App) error {
	faculty, err := roster.LoadFaculty(cfg.FacultyPath(), cfg.TokenModulus, time.Now())
	if err != nil {
		return err
	}
	mailer := export.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	if mailer == nil {
		log.Println("SMTP not configured, tokens saved locally only")
	}

	outDir := filepath.Join(cfg.ArtifactDir, "session")
	for _, member := range faculty.Records() {
		log.Printf("token for %s (%s)", member.Name, member.Code)
		name := member.Code + "_" + strings.ReplaceAll(member.Name, " ", "_") + ".png"
		path := filepath.Join(outDir, name)
		if err := qrimg.WriteFile(strconv.Itoa(member.Token), path); err != nil {
			return err
		}
		if mailer == nil {
			continue
		}
		body := "Valid for: " + time.Now().Format("2006-01-02") + " (" + time.Now().Weekday().String() + ")"
		if err := mailer.Send(ctx, member.Email, "Access Token: "+member.Name, body, path); err != nil {
			log.Printf("token mail to %s failed: %v, token saved locally", member.Email, err)
		}
	}
	return nil
}

func generateIdentity(cfg config.App) error {
	students, err := roster.LoadStudents(cfg.StudentPath())
	if err != nil {
		return err
	}
	outDir := filepath.Join(cfg.ArtifactDir, "attendees")
	for _, student := range students.Records() {
		payload := roster.EncodeIdentityPayload(student)
		log.Printf("identity code %s", payload)
		name := student.RollNumber + " - " + student.Name + ".png"
		if err := qrimg.WriteFile(payload, filepath.Join(outDir, name)); err != nil {
			return err
		}
	}
	return nil
}
