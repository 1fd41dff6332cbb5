package service

import "fmt"

func welcomeEmailTemplate(name, profileURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Complete your profile, add your experience and find classmates from your college:
%s

Best,
The %s Team`, name, profileURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Hi %s,

Your account has been permanently deleted from %s.

Your profile, posts, experiences, circles and follows have been removed.

If you didn't request this deletion, please contact us immediately.

Best,
The %s Team`, name, appName, appName)

	return subject, body
}
