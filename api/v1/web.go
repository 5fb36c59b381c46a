package v1

import "net/http"

func Web() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html := `
<!DOCTYPE html>
<html>
<head>
    <title>Job Application</title>
    <style>
        body {
            font-family: sans-serif;
            max-width: 640px;
            margin: 20px auto;
        }
        .form-group {
            margin-bottom: 10px;
        }
        label {
            display: block;
        }
        #recentFiles li {
            margin-bottom: 4px;
        }
        .error {
            color: #b00;
        }
    </style>
</head>
<body>
    <h1>Job Application</h1>
    <form id="applicationForm" onsubmit="submitApplication(event)">
        <div class="form-group">
            <label for="name">Full name:</label>
            <input type="text" id="name" name="name" required>
        </div>
        <div class="form-group">
            <label for="email">Email:</label>
            <input type="email" id="email" name="email" required>
        </div>
        <div class="form-group">
            <label for="phone">Phone:</label>
            <input type="tel" id="phone" name="phone" required>
        </div>
        <div class="form-group">
            <label for="availableFrom">Available from:</label>
            <input type="date" id="availableFrom" name="available_from" required>
        </div>
        <div class="form-group">
            <label for="attachments">Resume / cover letter (max 2 files, 10MB each):</label>
            <input type="file" id="attachments" multiple>
        </div>
        <div class="form-group">
            <input type="submit" value="Submit Application">
        </div>
        <div id="formErrors" class="error"></div>
    </form>

    <h2>Recent files</h2>
    <ul id="recentFiles"></ul>

    <script>
    function submitApplication(event) {
        event.preventDefault();

        const files = document.getElementById('attachments').files;
        if (files.length === 0 || files.length > 2) {
            showErrors(['select one or two files']);
            return;
        }

        const data = new FormData();
        data.append('name', document.getElementById('name').value);
        data.append('email', document.getElementById('email').value);
        data.append('phone', document.getElementById('phone').value);
        data.append('available_from', document.getElementById('availableFrom').value);
        for (const f of files) {
            data.append('attachments', f);
        }

        fetch('/api/v1/applications', { method: 'POST', body: data })
            .then(resp => resp.json().then(body => ({ ok: resp.ok, body })))
            .then(({ ok, body }) => {
                if (ok) {
                    document.getElementById('applicationForm').reset();
                    showErrors([]);
                } else {
                    showErrors(body.errors || [body.error && body.error.message || 'submission failed']);
                }
            })
            .catch(() => showErrors(['submission failed']));
    }

    function showErrors(errs) {
        document.getElementById('formErrors').textContent = errs.join('; ');
    }

    function refreshFiles() {
        fetch('/api/v1/files?limit=10')
            .then(resp => resp.json())
            .then(body => {
                const list = document.getElementById('recentFiles');
                list.innerHTML = '';
                for (const rec of body.data) {
                    const li = document.createElement('li');
                    li.textContent = rec.name + ' (' + rec.size + ' bytes) ';

                    const view = document.createElement('a');
                    view.textContent = 'view';
                    view.href = '#';
                    view.onclick = e => { e.preventDefault(); viewFile(rec.id); };
                    li.appendChild(view);
                    li.appendChild(document.createTextNode(' '));

                    const dl = document.createElement('a');
                    dl.textContent = 'download';
                    dl.href = '/api/v1/files/' + rec.id;
                    li.appendChild(dl);
                    li.appendChild(document.createTextNode(' '));

                    const del = document.createElement('a');
                    del.textContent = 'delete';
                    del.href = '#';
                    del.onclick = e => {
                        e.preventDefault();
                        fetch('/api/v1/files/' + rec.id, { method: 'DELETE' });
                    };
                    li.appendChild(del);

                    list.appendChild(li);
                }
            });
    }

    function viewFile(id) {
        fetch('/api/v1/files/' + id + '/links', { method: 'POST' })
            .then(resp => {
                if (!resp.ok) {
                    alert('cannot open this file');
                    return null;
                }
                return resp.json();
            })
            .then(body => {
                if (!body) return;
                const win = window.open(body.url, '_blank');
                // the opener owns the link: revoke it once the tab has loaded
                setTimeout(() => fetch(body.url, { method: 'DELETE' }), 10000);
            });
    }

    const ws = new WebSocket('ws://' + location.host + '/api/v1/events');
    ws.onmessage = refreshFiles;
    refreshFiles();
    </script>
</body>
</html>`

		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}
}
